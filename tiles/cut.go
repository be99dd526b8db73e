package tiles

import (
	"fmt"
	"image"
	"io"

	"github.com/vsariola/beatmap"
	"golang.org/x/image/draw"
)

// Cut scales src to set.Width x height pixels and writes every tile of the
// set, in the set's format, to the writer returned by create for the tile's
// URL.
func Cut(src image.Image, set beatmap.TileSet, height int, create func(name string) (io.WriteCloser, error)) error {
	if err := set.Validate(); err != nil {
		return err
	}
	if height <= 0 {
		return &beatmap.InvalidGeometryError{Field: "height", Value: float64(height)}
	}
	scaled := image.NewNRGBA(image.Rect(0, 0, set.Width, height))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), src, src.Bounds(), draw.Src, nil)
	for i := range set.TileCount() {
		x0 := i * set.TileWidth
		x1 := min(x0+set.TileWidth, set.Width)
		tile := scaled.SubImage(image.Rect(x0, 0, x1, height))
		if err := writeTile(tile, set, i, create); err != nil {
			return err
		}
	}
	return nil
}

func writeTile(tile image.Image, set beatmap.TileSet, i int, create func(name string) (io.WriteCloser, error)) error {
	name := set.TileURL(i)
	w, err := create(name)
	if err != nil {
		return fmt.Errorf("could not create tile %d: %w", i, err)
	}
	if err := Encode(w, tile, set.Format); err != nil {
		w.Close()
		return fmt.Errorf("could not encode tile %s: %w", name, err)
	}
	return w.Close()
}
