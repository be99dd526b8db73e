package beatmap

import (
	"fmt"
	"math"
)

type (
	// Track describes the audio track that the waveform bitmaps were rendered
	// from: the height of the bitmaps in pixels and the length of the audio in
	// seconds. All zoom levels of a track share the same Track.
	Track struct {
		Height int     `yaml:"height"`
		Length float64 `yaml:"length"`
	}

	// TileSet is one zoom level of the waveform: a Width pixels wide bitmap,
	// cut into tiles of TileWidth pixels. Tile i is found at
	// "{Src}_{i}.{Format}"; the last tile may be narrower than TileWidth.
	TileSet struct {
		Src       string `yaml:"src"`
		Format    string `yaml:"format"`
		Width     int    `yaml:"width"`
		TileWidth int    `yaml:"tilewidth"`
	}
)

// TicksPerView is the number of time ruler ticks aimed at for one view width.
const TicksPerView = 10

// Validate returns an *InvalidGeometryError if the track cannot be used for
// mapping seconds to pixels.
func (t Track) Validate() error {
	if t.Height <= 0 {
		return &InvalidGeometryError{Field: "height", Value: float64(t.Height)}
	}
	if !(t.Length > 0) || math.IsInf(t.Length, 0) {
		return &InvalidGeometryError{Field: "length", Value: t.Length}
	}
	return nil
}

// Validate returns an *InvalidGeometryError if the tile set is degenerate.
func (s TileSet) Validate() error {
	if s.Src == "" {
		return &InvalidGeometryError{Field: "src", Reason: "empty tile source prefix"}
	}
	if s.Format == "" {
		return &InvalidGeometryError{Field: "format", Reason: "empty image format"}
	}
	if s.Width <= 0 {
		return &InvalidGeometryError{Field: "width", Value: float64(s.Width)}
	}
	if s.TileWidth <= 0 {
		return &InvalidGeometryError{Field: "tilewidth", Value: float64(s.TileWidth)}
	}
	return nil
}

// TileCount returns the number of tiles needed to cover the whole bitmap.
func (s TileSet) TileCount() int {
	if s.TileWidth <= 0 {
		return 0
	}
	return (s.Width + s.TileWidth - 1) / s.TileWidth
}

// TileURL returns the address of tile i. The naming is the only contract
// between the view and whatever stores the tiles, so it must not change.
func (s TileSet) TileURL(i int) string {
	return fmt.Sprintf("%s_%d.%s", s.Src, i, s.Format)
}

// TileSpan returns the first and last pixel column of tile i. The last column
// is clamped to Width, i.e. for the last tile the span may be shorter.
func (s TileSet) TileSpan(i int) (start, end int) {
	start = i * s.TileWidth
	end = min(start+s.TileWidth-1, s.Width)
	return start, end
}

// PixelsPerSecond returns the horizontal scale of the tile set for the track.
func (s TileSet) PixelsPerSecond(t Track) float64 {
	return float64(s.Width) / t.Length
}
