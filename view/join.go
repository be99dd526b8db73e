package view

import (
	"math"

	"github.com/vsariola/beatmap"
)

type (
	// Join is the model of the display linking a zoomed waveform to an
	// overview of the whole track: two curves run from the top corners of the
	// zoomed view down to the part of the overview that the zoomed view
	// shows. The overview is assumed to be centered under the zoomed view.
	Join struct {
		zoomWidth     float64
		overviewWidth float64
		height        float64
		curves        []Curve
	}

	// Curve is a smooth curve through Points, drawn as a cardinal spline with
	// the given tension.
	Curve struct {
		Points  []Point
		Tension float64
	}

	Point struct{ X, Y float64 }
)

// JoinTension is the smoothing tension of the join curves.
const JoinTension = 0.5

func NewJoin(zoomWidth, overviewWidth, height int) (*Join, error) {
	if zoomWidth <= 0 {
		return nil, &beatmap.InvalidGeometryError{Field: "zoom width", Value: float64(zoomWidth)}
	}
	if overviewWidth <= 0 {
		return nil, &beatmap.InvalidGeometryError{Field: "overview width", Value: float64(overviewWidth)}
	}
	if height <= 0 {
		return nil, &beatmap.InvalidGeometryError{Field: "height", Value: float64(height)}
	}
	return &Join{zoomWidth: float64(zoomWidth), overviewWidth: float64(overviewWidth), height: float64(height)}, nil
}

func (j *Join) Size() (width, height float64) { return j.zoomWidth, j.height }

func (j *Join) OverviewWidth() float64 { return j.overviewWidth }

// Resize changes the widths, e.g. after the window is resized. The curves are
// cleared; Draw must be called again.
func (j *Join) Resize(zoomWidth, overviewWidth int) error {
	if zoomWidth <= 0 || overviewWidth <= 0 {
		return &beatmap.InvalidGeometryError{Field: "join width", Value: float64(min(zoomWidth, overviewWidth))}
	}
	j.zoomWidth, j.overviewWidth = float64(zoomWidth), float64(overviewWidth)
	j.curves = j.curves[:0]
	return nil
}

// Draw replaces the curves. zoomOffset and zoomLength give the part of the
// track shown in the zoomed view, overallLength the length of the whole
// track; all three in the same unit, usually seconds.
func (j *Join) Draw(zoomOffset, zoomLength, overallLength float64) error {
	if !(overallLength > 0) || math.IsInf(overallLength, 0) {
		return &beatmap.InvalidGeometryError{Field: "overall length", Value: overallLength}
	}
	j.curves = j.curves[:0]
	xOffset := (j.zoomWidth - j.overviewWidth) / 2
	leftX := xOffset + j.overviewWidth/overallLength*zoomOffset
	rightX := xOffset + j.overviewWidth/overallLength*(zoomOffset+zoomLength)
	h, w := j.height, j.zoomWidth
	j.curves = append(j.curves,
		Curve{
			Points: []Point{
				{0, 0},
				{leftX / 8, h / 4},
				{leftX / 2, h / 2},
				{leftX * 7 / 8, h * 3 / 4},
				{leftX, h},
			},
			Tension: JoinTension,
		},
		Curve{
			Points: []Point{
				{w, 0},
				{rightX + (w-rightX)*7/8, h / 4},
				{rightX + (w-rightX)/2, h / 2},
				{rightX + (w-rightX)/8, h * 3 / 4},
				{rightX, h},
			},
			Tension: JoinTension,
		})
	return nil
}

// SyncFrom draws the join for the part of the track currently shown in the
// zoomed waveform.
func (j *Join) SyncFrom(zoomed *Waveform) error {
	return j.Draw(zoomed.CurrentOffsetSeconds(), zoomed.VisibleWindowSeconds(), zoomed.Track().Length)
}

// Curves returns the curves of the last Draw: the left curve first.
func (j *Join) Curves() []Curve { return j.curves }

// Clear removes the curves.
func (j *Join) Clear() { j.curves = j.curves[:0] }
