package gioui

import (
	"image"
	"log"
	"math"

	"gioui.org/f32"
	"gioui.org/io/event"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"github.com/vsariola/beatmap/tiles"
	"github.com/vsariola/beatmap/view"
)

type (
	// WaveformView renders a view.Waveform: the visible tiles shifted by the
	// scroll offset, the selection, the ruler, the pointer and the playhead.
	WaveformView struct {
		Model *view.Waveform
		// Placeholder is scaled to the size of a tile and shown while the tile
		// loads. If nil, a flat color is shown instead.
		Placeholder image.Image
		// Fit makes the output width follow the width of the constraints.
		Fit bool
		// Verbose logs the tiles requested by each draw.
		Verbose bool

		cache        *tiles.Cache
		images       map[*tiles.Tile]paint.ImageOp
		placeholders map[image.Point]paint.ImageOp
	}

	C = layout.Context
	D = layout.Dimensions
)

func NewWaveformView(model *view.Waveform, placeholder image.Image, fit bool) *WaveformView {
	return &WaveformView{
		Model:        model,
		Placeholder:  placeholder,
		Fit:          fit,
		images:       map[*tiles.Tile]paint.ImageOp{},
		placeholders: map[image.Point]paint.ImageOp{},
	}
}

// Update handles the pointer events of the last frame. If the primary button
// was pressed over the view, it returns the time under the pointer.
func (wv *WaveformView) Update(gtx C) (seconds float64, seek bool) {
	for {
		ev, ok := gtx.Event(pointer.Filter{
			Target: wv,
			Kinds:  pointer.Move | pointer.Enter | pointer.Leave | pointer.Press | pointer.Drag | pointer.Cancel,
		})
		if !ok {
			break
		}
		e, ok := ev.(pointer.Event)
		if !ok {
			continue
		}
		switch e.Kind {
		case pointer.Move, pointer.Enter, pointer.Drag:
			wv.Model.SetPointer(view.Pointer{X: e.Position.X, Y: e.Position.Y, Valid: true})
		case pointer.Leave, pointer.Cancel:
			wv.Model.SetPointer(view.Pointer{})
		case pointer.Press:
			wv.Model.SetPointer(view.Pointer{X: e.Position.X, Y: e.Position.Y, Valid: true})
			if e.Buttons.Contain(pointer.ButtonPrimary) {
				seconds, seek = wv.Model.PointerPositionSeconds()
			}
		}
	}
	return seconds, seek
}

// Layout draws the waveform with the playhead at positionSeconds.
func (wv *WaveformView) Layout(gtx C, th *Theme, positionSeconds float64) D {
	if wv.Fit && gtx.Constraints.Max.X > 0 {
		wv.Model.SetOutputWidth(gtx.Constraints.Max.X)
	}
	if wv.cache != wv.Model.Cache() {
		// zoom level changed: the old images belong to a closed cache
		wv.cache = wv.Model.Cache()
		clear(wv.images)
	}
	requested := wv.Model.Draw(positionSeconds)
	if wv.Verbose && len(requested) > 0 {
		log.Printf("requested tiles %v of %s", requested, wv.Model.TileSet().Src)
	}
	vp, cursor := wv.Model.Viewport(), wv.Model.Cursor()
	set, track := wv.Model.TileSet(), wv.Model.Track()
	size := image.Pt(vp.OutputWidth, track.Height)
	defer clip.Rect{Max: size}.Push(gtx.Ops).Pop()
	event.Op(gtx.Ops, wv)
	paint.Fill(gtx.Ops, th.Waveform.Background)

	// everything in this block is in bitmap coordinates
	shift := op.Affine(f32.Affine2D{}.Offset(f32.Pt(-float32(cursor.OffsetPx), 0))).Push(gtx.Ops)
	for _, t := range wv.Model.VisibleTiles() {
		start, _ := set.TileSpan(t.Index)
		tileSize := image.Pt(min(set.TileWidth, set.Width-start), track.Height)
		switch t.State {
		case tiles.Loaded:
			drawImage(gtx, wv.imageOp(t), start)
		case tiles.Failed:
			paint.ColorOp{Color: th.Waveform.Failed}.Add(gtx.Ops)
			fillRect(gtx, clip.Rect{Min: image.Pt(start, 0), Max: image.Pt(start, 0).Add(tileSize)})
		default:
			drawImage(gtx, wv.placeholderOp(th, tileSize), start)
		}
	}
	if _, ok := wv.Model.Selection(); ok {
		x, w := wv.Model.SelectionRect()
		paint.ColorOp{Color: th.Waveform.Selection}.Add(gtx.Ops)
		fillRect(gtx, clip.Rect{
			Min: image.Pt(int(math.Round(x)), 0),
			Max: image.Pt(int(math.Round(x+w)), track.Height),
		})
	}
	wv.layoutRuler(gtx, th, cursor.OffsetPx, cursor.OffsetPx+float64(vp.OutputWidth))
	shift.Pop()

	if p := wv.Model.Pointer(); p.Valid {
		paint.ColorOp{Color: th.Waveform.Pointer}.Add(gtx.Ops)
		px := int(p.X)
		fillRect(gtx, clip.Rect{Min: image.Pt(px, 0), Max: image.Pt(px+1, track.Height)})
	}
	paint.ColorOp{Color: th.Waveform.Playhead}.Add(gtx.Ops)
	x := int(math.Round(cursor.PositionPx))
	fillRect(gtx, clip.Rect{Min: image.Pt(x, 0), Max: image.Pt(x+1, track.Height)})
	return D{Size: size}
}

func (wv *WaveformView) layoutRuler(gtx C, th *Theme, lo, hi float64) {
	ticks := wv.Model.Ruler()
	if len(ticks) == 0 {
		return
	}
	h := wv.Model.Track().Height
	l := int(wv.Model.TickMarkLength())
	labelOffset := gtx.Dp(th.Ruler.LabelOffset)
	defer paint.PushOpacity(gtx.Ops, th.Ruler.Opacity).Pop()
	for _, t := range ticks {
		// labels hang to the left of their tick
		if t.X < lo || t.X-float64(labelOffset) > hi {
			continue
		}
		x := int(math.Round(t.X))
		paint.ColorOp{Color: th.Ruler.Color}.Add(gtx.Ops)
		fillRect(gtx, clip.Rect{Min: image.Pt(x, 0), Max: image.Pt(x+1, l)})
		fillRect(gtx, clip.Rect{Min: image.Pt(x, h-l), Max: image.Pt(x+1, h)})
		offs := op.Offset(image.Pt(x-labelOffset, l)).Push(gtx.Ops)
		th.Ruler.Label.Layout(gtx, t.Label)
		offs.Pop()
	}
}

func (wv *WaveformView) imageOp(t *tiles.Tile) paint.ImageOp {
	if img, ok := wv.images[t]; ok {
		return img
	}
	img := paint.NewImageOp(t.Image)
	wv.images[t] = img
	return img
}

func (wv *WaveformView) placeholderOp(th *Theme, size image.Point) paint.ImageOp {
	if img, ok := wv.placeholders[size]; ok {
		return img
	}
	img := paint.NewImageOp(tiles.Placeholder(wv.Placeholder, size.X, size.Y, th.Waveform.Placeholder))
	wv.placeholders[size] = img
	return img
}

func drawImage(gtx C, img paint.ImageOp, x int) {
	defer op.Offset(image.Pt(x, 0)).Push(gtx.Ops).Pop()
	defer clip.Rect{Max: img.Size()}.Push(gtx.Ops).Pop()
	img.Add(gtx.Ops)
	paint.PaintOp{}.Add(gtx.Ops)
}

func fillRect(gtx C, rect clip.Rect) {
	stack := rect.Push(gtx.Ops)
	paint.PaintOp{}.Add(gtx.Ops)
	stack.Pop()
}
