package gioui

import (
	"image"
	"image/color"

	"gioui.org/font"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/paint"
	"gioui.org/text"
	"gioui.org/unit"
	"gioui.org/widget"
)

type LabelStyle struct {
	Color      color.NRGBA  `yaml:",flow"`
	ShadeColor color.NRGBA  `yaml:",flow"`
	FontSize   unit.Sp
	Font       font.Font    `yaml:"-"`
	Shaper     *text.Shaper `yaml:"-"`
}

// Layout draws a single line of text with a drop shadow, anchored at the top
// left corner of the constraints.
func (l LabelStyle) Layout(gtx C, txt string) D {
	gtx.Constraints.Min = image.Point{}
	paint.ColorOp{Color: l.ShadeColor}.Add(gtx.Ops)
	offs := op.Offset(image.Pt(1, 1)).Push(gtx.Ops)
	widget.Label{Alignment: text.Start, MaxLines: 1}.Layout(gtx, l.Shaper, l.Font, l.FontSize, txt, op.CallOp{})
	offs.Pop()
	paint.ColorOp{Color: l.Color}.Add(gtx.Ops)
	dims := widget.Label{Alignment: text.Start, MaxLines: 1}.Layout(gtx, l.Shaper, l.Font, l.FontSize, txt, op.CallOp{})
	return layout.Dimensions{Size: dims.Size, Baseline: dims.Baseline}
}
