package view

import "math"

// Segment is one piece of a curve path, ending at To. Quadratic segments use
// only Ctrl1; a segment without control points is a straight line.
type Segment struct {
	Ctrl1, Ctrl2, To Point
	Kind             SegmentKind
}

type SegmentKind int

const (
	LineSegment SegmentKind = iota
	QuadSegment
	CubicSegment
)

// Segments converts the curve into path segments starting from Points[0].
// Interior points get a pair of control points along the line through their
// neighbours, scaled by the tension and the distances to the neighbours;
// the first and the last piece are quadratic.
func (c Curve) Segments() []Segment {
	p := c.Points
	if len(p) < 2 {
		return nil
	}
	if len(p) == 2 || c.Tension == 0 {
		ret := make([]Segment, 0, len(p)-1)
		for _, q := range p[1:] {
			ret = append(ret, Segment{To: q, Kind: LineSegment})
		}
		return ret
	}
	// ctrl[i] holds the control points before and after interior point i+1
	ctrl := make([][2]Point, len(p)-2)
	for i := range ctrl {
		ctrl[i] = controlPoints(p[i], p[i+1], p[i+2], c.Tension)
	}
	ret := make([]Segment, 0, len(p)-1)
	ret = append(ret, Segment{Ctrl1: ctrl[0][0], To: p[1], Kind: QuadSegment})
	for i := 1; i < len(ctrl); i++ {
		ret = append(ret, Segment{Ctrl1: ctrl[i-1][1], Ctrl2: ctrl[i][0], To: p[i+1], Kind: CubicSegment})
	}
	ret = append(ret, Segment{Ctrl1: ctrl[len(ctrl)-1][1], To: p[len(p)-1], Kind: QuadSegment})
	return ret
}

func controlPoints(p0, p1, p2 Point, tension float64) [2]Point {
	d01 := math.Hypot(p1.X-p0.X, p1.Y-p0.Y)
	d12 := math.Hypot(p2.X-p1.X, p2.Y-p1.Y)
	var fa, fb float64
	if d := d01 + d12; d > 0 {
		fa = tension * d01 / d
		fb = tension * d12 / d
	}
	dx, dy := p2.X-p0.X, p2.Y-p0.Y
	return [2]Point{
		{p1.X - fa*dx, p1.Y - fa*dy},
		{p1.X + fb*dx, p1.Y + fb*dy},
	}
}
