package view_test

import (
	"context"
	"errors"
	"image"
	"math"
	"math/rand"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vsariola/beatmap"
	"github.com/vsariola/beatmap/tiles"
	"github.com/vsariola/beatmap/view"
)

type countingLoader struct {
	calls atomic.Int32
	err   error
}

func (l *countingLoader) Load(ctx context.Context, name string) (image.Image, error) {
	l.calls.Add(1)
	if l.err != nil {
		return nil, l.err
	}
	return image.NewNRGBA(image.Rect(0, 0, 1, 1)), nil
}

func newWaveform(t *testing.T, length float64, zooms []beatmap.TileSet, outputWidth int, showRuler bool) (*view.Waveform, *view.Broker, *countingLoader) {
	t.Helper()
	broker := view.NewBroker()
	loader := &countingLoader{}
	w, err := view.NewWaveform(broker, func(beatmap.TileSet) tiles.Loader { return loader }, beatmap.Track{Height: 100, Length: length}, zooms, outputWidth, 0, showRuler)
	if err != nil {
		t.Fatalf("NewWaveform failed: %v", err)
	}
	t.Cleanup(w.Close)
	return w, broker, loader
}

func waitLoaded(t *testing.T, b *view.Broker, tile *tiles.Tile) {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case <-tile.Done():
			return
		case f := <-b.ToView:
			f()
		case <-timeout:
			t.Fatalf("tile %d never finished", tile.Index)
		}
	}
}

func tileSet(width, tileWidth int) beatmap.TileSet {
	return beatmap.TileSet{Src: "tiles/wave", Format: "png", Width: width, TileWidth: tileWidth}
}

func TestPlayheadAlwaysVisible(t *testing.T) {
	geometries := []struct {
		name               string
		width, outputWidth int
	}{
		{"exact pages", 6000, 1000},
		{"fractional pages", 1000, 400},
		{"two pages", 1000, 500},
		{"narrower than output", 400, 500},
		{"one page", 500, 500},
	}
	const length = 100.0
	for _, g := range geometries {
		t.Run(g.name, func(t *testing.T) {
			w, _, _ := newWaveform(t, length, []beatmap.TileSet{tileSet(g.width, 256)}, g.outputWidth, false)
			cutWidth := w.Viewport().CutWidth
			ow := float64(g.outputWidth)
			for p := 0; p <= g.width; p++ {
				secs := float64(p) / float64(g.width) * length
				w.Draw(secs)
				off, win := w.CurrentOffsetSeconds(), w.VisibleWindowSeconds()
				c := w.Cursor()
				if off > secs+1e-9 {
					t.Fatalf("p=%d: offset %v s is past the playhead %v s", p, off, secs)
				}
				if secs > off+win+1e-9 {
					t.Fatalf("p=%d: playhead %v s is past the window end %v s", p, secs, off+win)
				}
				if c.PositionPx < 0 || c.PositionPx > ow {
					t.Fatalf("p=%d: playhead x %v outside [0, %v]", p, c.PositionPx, ow)
				}
				// a playhead exactly on a page boundary sits on the right edge
				onBoundary := p > 0 && math.Abs(math.Remainder(float64(p), cutWidth)) < 1e-6
				if !onBoundary && (c.PositionPx >= ow || secs >= off+win) {
					t.Fatalf("p=%d: playhead x %v not strictly inside the output", p, c.PositionPx)
				}
			}
		})
	}
}

func TestPageOffsets(t *testing.T) {
	// 1000 px in pages of 333.33 px, shown through 400 px
	w, _, _ := newWaveform(t, 100, []beatmap.TileSet{tileSet(1000, 256)}, 400, false)
	tests := []struct {
		secs       float64
		wantOffset float64
	}{
		{0, 0},
		{10, 0},   // first page, not shifted
		{50, 300}, // middle page, centered
		{90, 600}, // last page, aligned to the end
	}
	for _, tt := range tests {
		w.Draw(tt.secs)
		if got := w.Cursor().OffsetPx; math.Abs(got-tt.wantOffset) > 1e-9 {
			t.Errorf("Draw(%v): offset = %v, want %v", tt.secs, got, tt.wantOffset)
		}
	}
}

func TestSinglePageAlignsToEnd(t *testing.T) {
	w, _, _ := newWaveform(t, 10, []beatmap.TileSet{tileSet(400, 256)}, 500, false)
	w.Draw(5)
	if got := w.Cursor().OffsetPx; got != -100 {
		t.Errorf("offset = %v, want -100", got)
	}
	if got := w.Cursor().PositionPx; got != 300 {
		t.Errorf("playhead x = %v, want 300", got)
	}
}

func TestTileRequests(t *testing.T) {
	t.Run("first page", func(t *testing.T) {
		w, _, _ := newWaveform(t, 100, []beatmap.TileSet{tileSet(1000, 256)}, 500, false)
		got := w.Draw(10)
		if want := []int{0, 1, 2, 3}; !reflect.DeepEqual(got, want) {
			t.Errorf("requested %v, want %v", got, want)
		}
	})
	t.Run("last page", func(t *testing.T) {
		w, _, _ := newWaveform(t, 100, []beatmap.TileSet{tileSet(1000, 256)}, 500, false)
		got := w.Draw(80)
		if w.Cursor().OffsetPx != 500 {
			t.Fatalf("offset = %v, want 500", w.Cursor().OffsetPx)
		}
		if want := []int{1, 2, 3}; !reflect.DeepEqual(got, want) {
			t.Errorf("requested %v, want %v", got, want)
		}
	})
	t.Run("two view widths ahead", func(t *testing.T) {
		w, _, _ := newWaveform(t, 400, []beatmap.TileSet{tileSet(4000, 256)}, 500, false)
		got := w.Draw(170)
		if w.Cursor().OffsetPx != 1500 {
			t.Fatalf("offset = %v, want 1500", w.Cursor().OffsetPx)
		}
		if want := []int{5, 6, 7, 8, 9}; !reflect.DeepEqual(got, want) {
			t.Errorf("requested %v, want %v", got, want)
		}
	})
	t.Run("tile wider than output", func(t *testing.T) {
		w, _, _ := newWaveform(t, 100, []beatmap.TileSet{tileSet(2000, 2000)}, 500, false)
		if got := w.Draw(40); !reflect.DeepEqual(got, []int{0}) {
			t.Errorf("requested %v, want [0]", got)
		}
	})
}

func TestDrawIdempotent(t *testing.T) {
	w, b, loader := newWaveform(t, 100, []beatmap.TileSet{tileSet(1000, 256)}, 500, false)
	first := w.Draw(42)
	cursor := w.Cursor()
	for _, i := range first {
		tile, _ := w.Cache().Tile(i)
		waitLoaded(t, b, tile)
	}
	calls := loader.calls.Load()
	if again := w.Draw(42); len(again) != 0 {
		t.Errorf("second draw requested %v", again)
	}
	if w.Cursor() != cursor {
		t.Errorf("cursor changed: %+v != %+v", w.Cursor(), cursor)
	}
	if loader.calls.Load() != calls {
		t.Error("second draw loaded tiles again")
	}
	for _, tile := range w.VisibleTiles() {
		if tile.State != tiles.Loaded {
			t.Errorf("tile %d is %v", tile.Index, tile.State)
		}
	}
}

func TestTileLoadFailure(t *testing.T) {
	broker := view.NewBroker()
	loader := &countingLoader{err: errors.New("no such tile")}
	w, err := view.NewWaveform(broker, func(beatmap.TileSet) tiles.Loader { return loader }, beatmap.Track{Height: 10, Length: 10}, []beatmap.TileSet{tileSet(100, 100)}, 100, 0, false)
	if err != nil {
		t.Fatalf("NewWaveform failed: %v", err)
	}
	defer w.Close()
	w.Draw(1)
	tile, _ := w.Cache().Tile(0)
	waitLoaded(t, broker, tile)
	if tile.State != tiles.Failed {
		t.Errorf("state = %v, want failed", tile.State)
	}
	msg, ok := view.TimeoutReceive[any](broker.ToHost, time.Second)
	if _, isFail := msg.(tiles.TileLoadFailed); !ok || !isFail {
		t.Errorf("expected TileLoadFailed, got %#v", msg)
	}
	if len(w.VisibleTiles()) != 1 {
		t.Error("failed tile should stay in the view as a placeholder")
	}
}

func TestRuler(t *testing.T) {
	w, _, _ := newWaveform(t, 600, []beatmap.TileSet{tileSet(6000, 256)}, 1000, true)
	ticks := w.Ruler()
	if len(ticks) != 60 {
		t.Fatalf("got %d ticks, want 60", len(ticks))
	}
	if ticks[0].X != 100 || ticks[0].Label != "00:10" {
		t.Errorf("first tick %+v", ticks[0])
	}
	if last := ticks[59]; last.X != 6000 || last.Label != "10:00" {
		t.Errorf("last tick %+v", last)
	}
	if w.TickMarkLength() != 5 {
		t.Errorf("tick mark length %v, want 5", w.TickMarkLength())
	}
	hidden, _, _ := newWaveform(t, 600, []beatmap.TileSet{tileSet(6000, 256)}, 1000, false)
	if len(hidden.Ruler()) != 0 {
		t.Error("hidden ruler should have no ticks")
	}
}

func TestSelectionInvariant(t *testing.T) {
	w, _, _ := newWaveform(t, 100, []beatmap.TileSet{tileSet(1000, 256)}, 500, false)
	if _, ok := w.Selection(); ok {
		t.Fatal("new view should have no selection")
	}
	rnd := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		secs := rnd.Float64() * 100
		if rnd.Intn(2) == 0 {
			w.SetSelectionStart(secs)
		} else {
			w.SetSelectionEnd(secs)
		}
		if s, _ := w.Selection(); s.In > s.Out {
			t.Fatalf("step %d: in %v > out %v", i, s.In, s.Out)
		}
	}
	w.ClearSelection()
	w.SetSelectionEnd(30)
	w.SetSelectionStart(40)
	if s, _ := w.Selection(); s != (view.Selection{In: 40, Out: 40}) {
		t.Errorf("start past end should push end: %+v", s)
	}
	w.SetSelectionEnd(20)
	if s, _ := w.Selection(); s != (view.Selection{In: 20, Out: 20}) {
		t.Errorf("end before start should push start: %+v", s)
	}
	w.SetSelectionEnd(35)
	if x, width := w.SelectionRect(); x != 200 || width != 150 {
		t.Errorf("SelectionRect = %v, %v, want 200, 150", x, width)
	}
	w.SetSelectionStart(math.NaN())
	if s, _ := w.Selection(); s.In != 20 {
		t.Errorf("NaN should be ignored, in = %v", s.In)
	}
}

func TestPointerPosition(t *testing.T) {
	w, _, _ := newWaveform(t, 100, []beatmap.TileSet{tileSet(1000, 256)}, 500, false)
	if secs, ok := w.PointerPositionSeconds(); ok || secs != view.NoPosition {
		t.Errorf("no pointer: got %v, %v", secs, ok)
	}
	w.Draw(80) // offset 500
	w.SetPointer(view.Pointer{X: 250, Valid: true})
	if secs, ok := w.PointerPositionSeconds(); !ok || secs != 75 {
		t.Errorf("got %v, %v, want 75, true", secs, ok)
	}
	w.SetPointer(view.Pointer{})
	if _, ok := w.PointerPositionSeconds(); ok {
		t.Error("pointer left the output, expected no position")
	}
}

func TestSwitchZoomLevel(t *testing.T) {
	zooms := []beatmap.TileSet{
		{Src: "tiles/wave0", Format: "png", Width: 1000, TileWidth: 256},
		{Src: "tiles/wave1", Format: "png", Width: 6000, TileWidth: 256},
	}
	w, _, _ := newWaveform(t, 600, zooms, 1000, true)
	w.SetSelectionStart(100)
	w.SetSelectionEnd(200)
	w.Draw(450)
	oldCache := w.Cache()
	oldTile, _ := oldCache.Tile(0)
	if !w.ZoomIn() {
		t.Fatal("ZoomIn failed")
	}
	if w.ZoomIn() {
		t.Error("ZoomIn past the finest level should fail")
	}
	if w.Cache() == oldCache {
		t.Error("tile cache should be replaced")
	}
	select {
	case <-oldTile.Done():
	default:
		t.Error("tiles of the old set should be finished or cancelled")
	}
	if w.Viewport().Cuts != 6 || w.Viewport().CutWidth != 1000 {
		t.Errorf("viewport %+v", w.Viewport())
	}
	if len(w.Ruler()) != 60 {
		t.Errorf("ruler has %d ticks after zoom, want 60", len(w.Ruler()))
	}
	if x, width := w.SelectionRect(); x != 1000 || width != 1000 {
		t.Errorf("selection rect %v, %v, want 1000, 1000", x, width)
	}
	if w.Cache().Len() == 0 {
		t.Error("view should be redrawn with the new tile set")
	}
	if w.Cursor().OffsetPx != 4000 {
		t.Errorf("offset after zoom %v, want 4000", w.Cursor().OffsetPx)
	}
	if !w.ZoomOut() || w.Zoom() != 0 {
		t.Error("ZoomOut failed")
	}
	if err := w.SwitchZoomLevel(beatmap.TileSet{Src: "x", Format: "png"}); err == nil {
		t.Error("switching to a zero width tile set should fail")
	}
}

func TestInvalidGeometry(t *testing.T) {
	broker := view.NewBroker()
	loader := func(beatmap.TileSet) tiles.Loader { return &countingLoader{} }
	cases := map[string]struct {
		track       beatmap.Track
		set         beatmap.TileSet
		outputWidth int
	}{
		"zero width":        {beatmap.Track{Height: 10, Length: 10}, tileSet(0, 256), 100},
		"zero tile width":   {beatmap.Track{Height: 10, Length: 10}, tileSet(100, 0), 100},
		"zero length":       {beatmap.Track{Height: 10, Length: 0}, tileSet(100, 10), 100},
		"zero output width": {beatmap.Track{Height: 10, Length: 10}, tileSet(100, 10), 0},
	}
	for name, c := range cases {
		_, err := view.NewWaveform(broker, loader, c.track, []beatmap.TileSet{c.set}, c.outputWidth, 0, true)
		var geomErr *beatmap.InvalidGeometryError
		if !errors.As(err, &geomErr) {
			t.Errorf("%s: expected InvalidGeometryError, got %v", name, err)
		}
	}
}

func TestSetOutputWidth(t *testing.T) {
	w, _, _ := newWaveform(t, 100, []beatmap.TileSet{tileSet(1000, 256)}, 500, true)
	w.Draw(90)
	if err := w.SetOutputWidth(250); err != nil {
		t.Fatalf("SetOutputWidth failed: %v", err)
	}
	if vp := w.Viewport(); vp.Cuts != 4 || vp.CutWidth != 250 {
		t.Errorf("viewport %+v", vp)
	}
	if w.Cursor().OffsetPx != 750 {
		t.Errorf("offset %v, want 750", w.Cursor().OffsetPx)
	}
	if err := w.SetOutputWidth(0); err == nil {
		t.Error("zero output width should fail")
	}
}
