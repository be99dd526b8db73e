package view_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/vsariola/beatmap"
	"github.com/vsariola/beatmap/view"
)

func TestJoinSymmetry(t *testing.T) {
	j, err := view.NewJoin(1000, 600, 80)
	if err != nil {
		t.Fatalf("NewJoin failed: %v", err)
	}
	// a 10 s window centered in a 100 s track
	if err := j.Draw(45, 10, 100); err != nil {
		t.Fatalf("Draw failed: %v", err)
	}
	curves := j.Curves()
	if len(curves) != 2 {
		t.Fatalf("got %d curves, want 2", len(curves))
	}
	left, right := curves[0], curves[1]
	if got := left.Points[len(left.Points)-1]; got != (view.Point{X: 470, Y: 80}) {
		t.Errorf("left end %v, want (470, 80)", got)
	}
	if got := right.Points[len(right.Points)-1]; got != (view.Point{X: 530, Y: 80}) {
		t.Errorf("right end %v, want (530, 80)", got)
	}
	for i := range left.Points {
		l, r := left.Points[i], right.Points[i]
		if math.Abs(l.X-(1000-r.X)) > 1e-9 || l.Y != r.Y {
			t.Errorf("point %d: %v and %v are not mirror images", i, l, r)
		}
	}
	if left.Tension != view.JoinTension {
		t.Errorf("tension %v", left.Tension)
	}
}

func TestJoinRedrawClears(t *testing.T) {
	j, _ := view.NewJoin(800, 800, 40)
	for range 3 {
		if err := j.Draw(0, 10, 100); err != nil {
			t.Fatal(err)
		}
	}
	if len(j.Curves()) != 2 {
		t.Errorf("got %d curves after redraws, want 2", len(j.Curves()))
	}
	j.Clear()
	if len(j.Curves()) != 0 {
		t.Error("Clear left curves behind")
	}
	var geomErr *beatmap.InvalidGeometryError
	if err := j.Draw(0, 10, 0); !errors.As(err, &geomErr) {
		t.Errorf("zero overall length: expected InvalidGeometryError, got %v", err)
	}
	if _, err := view.NewJoin(0, 10, 10); !errors.As(err, &geomErr) {
		t.Errorf("zero zoom width: expected InvalidGeometryError, got %v", err)
	}
}

func TestJoinSyncFrom(t *testing.T) {
	w, _, _ := newWaveform(t, 100, []beatmap.TileSet{tileSet(1000, 256)}, 500, false)
	w.Draw(80) // shows 50 s .. 100 s
	j, _ := view.NewJoin(500, 300, 40)
	if err := j.SyncFrom(w); err != nil {
		t.Fatalf("SyncFrom failed: %v", err)
	}
	c := j.Curves()
	// overview centered: 100 px margin, 3 px per second
	if got := c[0].Points[4].X; got != 250 {
		t.Errorf("left end x = %v, want 250", got)
	}
	if got := c[1].Points[4].X; got != 400 {
		t.Errorf("right end x = %v, want 400", got)
	}
}

func TestCurveSegments(t *testing.T) {
	c := view.Curve{
		Points:  []view.Point{{0, 0}, {10, 20}, {40, 40}, {70, 60}, {80, 80}},
		Tension: 0.5,
	}
	segs := c.Segments()
	if len(segs) != 4 {
		t.Fatalf("got %d segments, want 4", len(segs))
	}
	for i, s := range segs {
		if s.To != c.Points[i+1] {
			t.Errorf("segment %d ends at %v, want %v", i, s.To, c.Points[i+1])
		}
	}
	if segs[0].Kind != view.QuadSegment || segs[3].Kind != view.QuadSegment {
		t.Error("first and last segments should be quadratic")
	}
	if segs[1].Kind != view.CubicSegment || segs[2].Kind != view.CubicSegment {
		t.Error("interior segments should be cubic")
	}
	// the control points around an interior point are collinear with it
	p := c.Points[2]
	a, b := segs[1].Ctrl2, segs[2].Ctrl1
	if cross := (a.X-p.X)*(b.Y-p.Y) - (a.Y-p.Y)*(b.X-p.X); math.Abs(cross) > 1e-9 {
		t.Errorf("control points %v, %v not collinear with %v", a, b, p)
	}
	straight := view.Curve{Points: c.Points}
	for _, s := range straight.Segments() {
		if s.Kind != view.LineSegment {
			t.Error("zero tension should give straight lines")
		}
	}
	if len((view.Curve{Points: c.Points[:1]}).Segments()) != 0 {
		t.Error("a single point has no segments")
	}
}

func TestClock(t *testing.T) {
	start := time.Unix(1000, 0)
	c := view.NewClock(10)
	if c.Position(start) != 0 || c.Playing() {
		t.Fatal("new clock should be stopped at 0")
	}
	c.Play(start)
	if got := c.Position(start.Add(2500 * time.Millisecond)); got != 2.5 {
		t.Errorf("position after 2.5 s = %v", got)
	}
	c.Pause(start.Add(3 * time.Second))
	if got := c.Position(start.Add(time.Hour)); got != 3 {
		t.Errorf("paused position = %v, want 3", got)
	}
	c.Seek(start, 8)
	c.Toggle(start)
	if !c.Playing() {
		t.Fatal("Toggle should start playing")
	}
	later := start.Add(5 * time.Second)
	if got := c.Position(later); got != 10 {
		t.Errorf("position past the end = %v, want 10", got)
	}
	if !c.Ended(later) {
		t.Error("clock should have ended")
	}
	c.Pause(later)
	c.Play(later)
	if got := c.Position(later); got != 0 {
		t.Errorf("playing after the end should restart, got %v", got)
	}
	c.Seek(later, -5)
	if got := c.Position(later); got != 0 {
		t.Errorf("seek is not clamped: %v", got)
	}
}
