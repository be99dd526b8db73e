package view

import (
	"errors"
	"fmt"
	"io/fs"
	"math"

	"github.com/vsariola/beatmap"
	"github.com/vsariola/beatmap/tiles"
)

type (
	// Waveform is the model of a scrolling view into a wide, tiled waveform
	// bitmap. The bitmap is divided into Cuts pages of CutWidth pixels; the
	// view scrolls page by page so that the playhead always stays visible.
	//
	// All methods must be called from the UI goroutine; tile load results
	// arrive through the broker's ToView channel.
	Waveform struct {
		broker *Broker
		loader LoaderFunc

		track     beatmap.Track
		zooms     []beatmap.TileSet
		zoom      int
		set       beatmap.TileSet
		showRuler bool

		viewport Viewport
		cursor   Cursor
		drawn    bool
		lastPos  float64

		selection    Selection
		hasSelection bool

		ruler []Tick
		cache *tiles.Cache

		pointer Pointer
	}

	// LoaderFunc returns the loader for a tile set; different zoom levels may
	// live in different places.
	LoaderFunc func(set beatmap.TileSet) tiles.Loader

	// Viewport is the paging geometry derived from the tile set and the output
	// width.
	Viewport struct {
		OutputWidth int
		Cuts        int
		CutWidth    float64
	}

	// Cursor is the scroll offset of the tile group and the x coordinate of the
	// playhead within the visible output, both in pixels.
	Cursor struct {
		OffsetPx   float64
		PositionPx float64
	}

	// Selection is the in/out range, in seconds. In <= Out always holds.
	Selection struct {
		In, Out float64
	}

	// Tick is one mark of the time ruler. X is in bitmap coordinates.
	Tick struct {
		X       float64
		Seconds float64
		Label   string
	}

	// Pointer is the last known pointer position relative to the output, as
	// reported by the rendering surface. Valid is false when the pointer is not
	// over the output.
	Pointer struct {
		X, Y  float32
		Valid bool
	}

	pageKind int
)

// NoPosition is returned by PointerPositionSeconds when there is no pointer.
const NoPosition = -1

const (
	firstPage pageKind = iota
	middlePage
	lastPage
)

// pageOverlap gives, per kind of page, how many pixels the view is shifted to
// the left of the start of the page. Middle pages are centered in the output,
// the last page is aligned to the end of the bitmap and the first page is not
// shifted at all.
var pageOverlap = [...]func(outputWidth, cutWidth float64) float64{
	firstPage:  func(_, _ float64) float64 { return 0 },
	middlePage: func(o, c float64) float64 { return (o - c) / 2 },
	lastPage:   func(o, c float64) float64 { return o - c },
}

// NewWaveform returns a waveform view of the track showing zoom level
// zoomIndex of zooms through an output outputWidth pixels wide.
func NewWaveform(broker *Broker, loader LoaderFunc, track beatmap.Track, zooms []beatmap.TileSet, outputWidth, zoomIndex int, showRuler bool) (*Waveform, error) {
	if broker == nil || loader == nil {
		return nil, errors.New("waveform needs a broker and a tile loader")
	}
	if err := track.Validate(); err != nil {
		return nil, err
	}
	if len(zooms) == 0 {
		return nil, errors.New("no zoom levels")
	}
	if zoomIndex < 0 || zoomIndex >= len(zooms) {
		return nil, fmt.Errorf("zoom level %d out of range [0, %d)", zoomIndex, len(zooms))
	}
	if outputWidth <= 0 {
		return nil, &beatmap.InvalidGeometryError{Field: "output width", Value: float64(outputWidth)}
	}
	for i, z := range zooms {
		if err := z.Validate(); err != nil {
			return nil, fmt.Errorf("zoom level %d: %w", i, err)
		}
	}
	w := &Waveform{
		broker:    broker,
		loader:    loader,
		track:     track,
		zooms:     zooms,
		showRuler: showRuler,
	}
	w.viewport.OutputWidth = outputWidth
	w.zoom = zoomIndex
	w.init(zooms[zoomIndex])
	return w, nil
}

func (w *Waveform) Track() beatmap.Track     { return w.track }
func (w *Waveform) TileSet() beatmap.TileSet { return w.set }
func (w *Waveform) Viewport() Viewport       { return w.viewport }
func (w *Waveform) Cursor() Cursor           { return w.cursor }
func (w *Waveform) Zoom() int                { return w.zoom }
func (w *Waveform) NumZooms() int            { return len(w.zooms) }
func (w *Waveform) ShowRuler() bool          { return w.showRuler }
func (w *Waveform) Cache() *tiles.Cache      { return w.cache }

// init makes the view use the tile set. The old tile cache, if any, is closed;
// the ruler is rebuilt for the new pixel scale and the selection, being kept
// in seconds, follows automatically.
func (w *Waveform) init(set beatmap.TileSet) {
	if w.cache != nil {
		w.cache.Close()
	}
	w.set = set
	w.cache = tiles.NewCache(set, w.loader(set), w.broker.ToView, w.broker.ToHost)
	w.updateViewport()
}

func (w *Waveform) updateViewport() {
	w.viewport.Cuts = (w.set.Width + w.viewport.OutputWidth - 1) / w.viewport.OutputWidth
	w.viewport.CutWidth = float64(w.set.Width) / float64(w.viewport.Cuts)
	w.ruler = w.ruler[:0]
	if w.showRuler {
		w.ruler = w.buildRuler(w.ruler)
	}
	if w.drawn {
		w.Draw(w.lastPos)
	}
}

// SwitchZoomLevel replaces the tile set shown. Tiles of the old set are
// discarded and pending loads cancelled; if the view has been drawn, it is
// redrawn at the last drawn position.
func (w *Waveform) SwitchZoomLevel(set beatmap.TileSet) error {
	if err := set.Validate(); err != nil {
		return err
	}
	w.init(set)
	return nil
}

// SelectZoom switches to zoom level i of the zoom levels given at
// construction.
func (w *Waveform) SelectZoom(i int) error {
	if i < 0 || i >= len(w.zooms) {
		return fmt.Errorf("zoom level %d out of range [0, %d)", i, len(w.zooms))
	}
	w.zoom = i
	w.init(w.zooms[i])
	return nil
}

// ZoomIn moves to the next, finer zoom level. It returns false if already at
// the finest level.
func (w *Waveform) ZoomIn() bool {
	if w.zoom+1 >= len(w.zooms) {
		return false
	}
	return w.SelectZoom(w.zoom+1) == nil
}

// ZoomOut moves to the previous, coarser zoom level.
func (w *Waveform) ZoomOut() bool {
	if w.zoom <= 0 {
		return false
	}
	return w.SelectZoom(w.zoom-1) == nil
}

// SetOutputWidth changes the width of the output, e.g. when the window is
// resized. The tile cache is kept, as the tile set does not change.
func (w *Waveform) SetOutputWidth(width int) error {
	if width <= 0 {
		return &beatmap.InvalidGeometryError{Field: "output width", Value: float64(width)}
	}
	if width == w.viewport.OutputWidth {
		return nil
	}
	w.viewport.OutputWidth = width
	w.updateViewport()
	return nil
}

// Ruler returns the ticks of the time ruler, or nil if the ruler is hidden.
func (w *Waveform) Ruler() []Tick {
	if !w.showRuler {
		return nil
	}
	return w.ruler
}

// TickMarkLength is the length of the tick marks at the top and the bottom of
// the view, in pixels.
func (w *Waveform) TickMarkLength() float64 { return float64(w.track.Height) / 20 }

func (w *Waveform) buildRuler(ticks []Tick) []Tick {
	interval := beatmap.TickInterval(w.track.Length, w.set.Width, w.viewport.OutputWidth, beatmap.TicksPerView)
	tickWidth := w.set.PixelsPerSecond(w.track) * interval
	for i := 1; i <= beatmap.TickCount(w.track.Length, interval); i++ {
		secs := float64(i) * interval
		ticks = append(ticks, Tick{X: float64(i) * tickWidth, Seconds: secs, Label: beatmap.FormatTime(secs)})
	}
	return ticks
}

// FormatTime formats seconds the way the ruler labels do.
func (w *Waveform) FormatTime(seconds float64) string { return beatmap.FormatTime(seconds) }

func (w *Waveform) pageKind(i int) pageKind {
	switch {
	case i > 0 && i < w.viewport.Cuts-1:
		return middlePage
	case i == w.viewport.Cuts-1:
		return lastPage
	default:
		return firstPage
	}
}

// Draw scrolls the view so that the playhead at positionSeconds is visible
// and requests the tiles of the current view and of the next two view widths.
// It returns the indices of the tiles that were not requested before.
func (w *Waveform) Draw(positionSeconds float64) []int {
	w.drawn = true
	w.lastPos = positionSeconds
	pos := math.Round(w.set.PixelsPerSecond(w.track) * positionSeconds)
	page := 0
	for i := w.viewport.Cuts - 1; i >= 0; i-- {
		if pos > float64(i)*w.viewport.CutWidth {
			page = i
			break
		}
	}
	overlap := pageOverlap[w.pageKind(page)](float64(w.viewport.OutputWidth), w.viewport.CutWidth)
	w.cursor.OffsetPx = float64(page)*w.viewport.CutWidth - overlap
	w.cursor.PositionPx = pos - w.cursor.OffsetPx
	var requested []int
	for _, i := range w.wantedTiles() {
		if _, isNew := w.cache.Request(i); isNew {
			requested = append(requested, i)
		}
	}
	return requested
}

// wantedTiles returns the tiles overlapping the view or the next two view
// widths.
func (w *Waveform) wantedTiles() []int {
	var ret []int
	lo := w.cursor.OffsetPx
	hi := lo + 2*float64(w.viewport.OutputWidth)
	for i := range w.set.TileCount() {
		start, end := w.set.TileSpan(i)
		if float64(end) >= lo && float64(start) < hi {
			ret = append(ret, i)
		}
	}
	return ret
}

// VisibleTiles returns the requested tiles that overlap the output, in
// increasing order of index.
func (w *Waveform) VisibleTiles() []*tiles.Tile {
	var ret []*tiles.Tile
	lo := w.cursor.OffsetPx
	hi := lo + float64(w.viewport.OutputWidth)
	for _, i := range w.cache.Indices() {
		start, end := w.set.TileSpan(i)
		if float64(end) >= lo && float64(start) < hi {
			t, _ := w.cache.Tile(i)
			ret = append(ret, t)
		}
	}
	return ret
}

// CurrentOffsetSeconds returns the time at the left edge of the output.
func (w *Waveform) CurrentOffsetSeconds() float64 {
	return w.cursor.OffsetPx / float64(w.set.Width) * w.track.Length
}

// VisibleWindowSeconds returns how many seconds fit in the output.
func (w *Waveform) VisibleWindowSeconds() float64 {
	return float64(w.viewport.OutputWidth) / float64(w.set.Width) * w.track.Length
}

// SetPointer records the pointer position reported by the rendering surface.
func (w *Waveform) SetPointer(p Pointer) { w.pointer = p }

func (w *Waveform) Pointer() Pointer { return w.pointer }

// PointerPositionSeconds maps the last known pointer position to a time in
// the track. It returns NoPosition and false if the pointer is not over the
// output.
func (w *Waveform) PointerPositionSeconds() (float64, bool) {
	if !w.pointer.Valid {
		return NoPosition, false
	}
	return w.SecondsAt(float64(w.pointer.X)), true
}

// SecondsAt maps an x coordinate of the output to a time in the track.
func (w *Waveform) SecondsAt(x float64) float64 {
	return (x + w.cursor.OffsetPx) / float64(w.set.Width) * w.track.Length
}

// SetSelectionStart sets the in point; the out point is pushed along if the
// in point moves past it. NaN is ignored.
func (w *Waveform) SetSelectionStart(seconds float64) {
	if math.IsNaN(seconds) {
		return
	}
	w.selection.In = seconds
	if w.selection.In > w.selection.Out {
		w.selection.Out = w.selection.In
	}
	w.hasSelection = true
}

// SetSelectionEnd sets the out point; the in point is pushed along if the out
// point moves before it. NaN is ignored.
func (w *Waveform) SetSelectionEnd(seconds float64) {
	if math.IsNaN(seconds) {
		return
	}
	w.selection.Out = seconds
	if w.selection.Out < w.selection.In {
		w.selection.In = w.selection.Out
	}
	w.hasSelection = true
}

func (w *Waveform) ClearSelection() {
	w.selection = Selection{}
	w.hasSelection = false
}

// Selection returns the selection and whether one has been set.
func (w *Waveform) Selection() (Selection, bool) { return w.selection, w.hasSelection }

// SelectionRect returns the x coordinate and width of the selection overlay
// in bitmap coordinates.
func (w *Waveform) SelectionRect() (x, width float64) {
	pps := w.set.PixelsPerSecond(w.track)
	x = pps * w.selection.In
	return x, pps*w.selection.Out - x
}

// Close cancels all pending tile loads.
func (w *Waveform) Close() {
	w.cache.Close()
}

// DirLoader returns a LoaderFunc reading relative tile sources from fsys and
// http(s) sources from the web. fsys may be nil when all sources are URLs.
func DirLoader(fsys fs.FS) LoaderFunc {
	return func(set beatmap.TileSet) tiles.Loader {
		if fsys == nil {
			return tiles.HTTPLoader{}
		}
		return tiles.LoaderFor(set.Src, fsys)
	}
}
