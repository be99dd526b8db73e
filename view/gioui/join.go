package gioui

import (
	"image"

	"gioui.org/f32"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"github.com/vsariola/beatmap/view"
)

// JoinView strokes the curves of a view.Join.
type JoinView struct {
	Model *view.Join
}

func (jv *JoinView) Layout(gtx C, th *Theme) D {
	w, h := jv.Model.Size()
	size := image.Pt(int(w), int(h))
	curves := jv.Model.Curves()
	if len(curves) == 0 {
		return D{Size: size}
	}
	defer clip.Rect{Max: size}.Push(gtx.Ops).Pop()
	var path clip.Path
	path.Begin(gtx.Ops)
	for _, c := range curves {
		if len(c.Points) == 0 {
			continue
		}
		path.MoveTo(pt(c.Points[0]))
		for _, s := range c.Segments() {
			switch s.Kind {
			case view.QuadSegment:
				path.QuadTo(pt(s.Ctrl1), pt(s.To))
			case view.CubicSegment:
				path.CubeTo(pt(s.Ctrl1), pt(s.Ctrl2), pt(s.To))
			default:
				path.LineTo(pt(s.To))
			}
		}
	}
	paint.FillShape(gtx.Ops, th.Join.Color,
		clip.Stroke{
			Path:  path.End(),
			Width: float32(th.Join.Width) * gtx.Metric.PxPerDp,
		}.Op())
	return D{Size: size}
}

func pt(p view.Point) f32.Point { return f32.Pt(float32(p.X), float32(p.Y)) }
