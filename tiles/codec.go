package tiles

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// formats maps the image format names accepted in a tile set to the name the
// image package registers the decoder under.
var formats = map[string]string{
	"png":  "png",
	"jpg":  "jpeg",
	"jpeg": "jpeg",
	"gif":  "gif",
	"webp": "webp",
	"bmp":  "bmp",
	"tif":  "tiff",
	"tiff": "tiff",
}

func normalizeFormat(format string) string {
	return strings.ToLower(strings.TrimPrefix(format, "."))
}

// Supported reports whether tiles of the given format can be decoded.
func Supported(format string) bool {
	_, ok := formats[normalizeFormat(format)]
	return ok
}

// Decode decodes a tile image. The format, usually the file extension, is
// checked against the format detected from the data.
func Decode(r io.Reader, format string) (image.Image, error) {
	want, ok := formats[normalizeFormat(format)]
	if !ok {
		return nil, fmt.Errorf("unsupported tile format %q", format)
	}
	img, got, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("could not decode %s tile: %w", want, err)
	}
	if got != want {
		return nil, fmt.Errorf("tile data is %s, expected %s", got, want)
	}
	return img, nil
}

// Encode writes img in the given format. WebP tiles can be decoded but not
// written.
func Encode(w io.Writer, img image.Image, format string) error {
	switch formats[normalizeFormat(format)] {
	case "png":
		return png.Encode(w, img)
	case "jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 90})
	case "gif":
		return gif.Encode(w, img, nil)
	case "bmp":
		return bmp.Encode(w, img)
	case "tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	}
	return fmt.Errorf("cannot encode tiles as %q", format)
}

// Placeholder returns the image shown in place of a tile that has not loaded
// yet. If src is nil, a plain image of color c is generated; otherwise src is
// scaled to the tile size.
func Placeholder(src image.Image, width, height int, c color.NRGBA) image.Image {
	dst := image.NewNRGBA(image.Rect(0, 0, max(width, 1), max(height, 1)))
	if src == nil {
		draw.Draw(dst, dst.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
		return dst
	}
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}
