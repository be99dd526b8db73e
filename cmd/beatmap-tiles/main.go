package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vsariola/beatmap"
	"github.com/vsariola/beatmap/tiles"
)

func main() {
	outPath := flag.String("o", "", "Directory where the tiles and manifest.yml are written. Created if needed. Defaults to the directory of the input image.")
	name := flag.String("name", "", "Prefix of the tile file names. Defaults to the input file name without extension.")
	tileWidth := flag.Int("tilewidth", 256, "Width of a single tile in pixels.")
	format := flag.String("format", "png", "Tile image format: png, jpg, gif, bmp or tiff.")
	zooms := flag.String("zooms", "1000,4000", "Comma separated widths of the zoom levels, in pixels, from coarse to fine.")
	height := flag.Int("height", 0, "Height of the tiles in pixels. Defaults to the height of the input image.")
	length := flag.Float64("length", 0, "Length of the track in seconds. Required.")
	overview := flag.Int("overview", 0, "Index of the zoom level shown as the overview.")
	safe := flag.Bool("n", false, "Never overwrite files; give an error if a file already exists.")
	help := flag.Bool("h", false, "Show help.")
	flag.Usage = printUsage
	flag.Parse()
	if flag.NArg() != 1 || *help {
		flag.Usage()
		os.Exit(0)
	}
	input := flag.Arg(0)
	widths, err := parseWidths(*zooms)
	if err != nil {
		fatal(err)
	}
	src, err := readImage(input)
	if err != nil {
		fatal(err)
	}
	if *height <= 0 {
		*height = src.Bounds().Dy()
	}
	if *name == "" {
		*name = strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	}
	dir := *outPath
	if dir == "" {
		dir = filepath.Dir(input)
	}
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		fatal(fmt.Errorf("could not create output directory %v: %w", dir, err))
	}
	create := func(file string) (io.WriteCloser, error) {
		flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
		if *safe {
			flags |= os.O_EXCL
		}
		return os.OpenFile(filepath.Join(dir, filepath.FromSlash(file)), flags, 0644)
	}
	manifest := &beatmap.Manifest{
		Track:    beatmap.Track{Height: *height, Length: *length},
		Overview: *overview,
	}
	for _, w := range widths {
		manifest.Zooms = append(manifest.Zooms, beatmap.TileSet{
			Src:       fmt.Sprintf("%s_%d", *name, w),
			Format:    *format,
			Width:     w,
			TileWidth: *tileWidth,
		})
	}
	// validate before writing any tiles
	if err := manifest.Validate(); err != nil {
		fatal(err)
	}
	if !tiles.Supported(*format) {
		fatal(fmt.Errorf("unsupported tile format %q", *format))
	}
	for _, set := range manifest.Zooms {
		if err := tiles.Cut(src, set, *height, create); err != nil {
			fatal(fmt.Errorf("zoom level %d px: %w", set.Width, err))
		}
		fmt.Printf("%s: %d tiles\n", set.Src, set.TileCount())
	}
	f, err := create("manifest.yml")
	if err != nil {
		fatal(err)
	}
	if err := beatmap.WriteManifest(f, manifest); err != nil {
		f.Close()
		fatal(err)
	}
	if err := f.Close(); err != nil {
		fatal(err)
	}
}

func parseWidths(s string) ([]int, error) {
	var ret []int
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		w, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("invalid zoom width %q: %w", f, err)
		}
		ret = append(ret, w)
	}
	if len(ret) == 0 {
		return nil, errors.New("no zoom widths given")
	}
	return ret, nil
}

func readImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("could not decode %v: %w", path, err)
	}
	return img, nil
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "beatmap-tiles: %v\n", err)
	os.Exit(1)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [flags] waveform-image\n\nCuts a waveform image into tiles for each zoom level and writes a manifest.yml describing them.\n\nFlags:\n", os.Args[0])
	flag.PrintDefaults()
}
