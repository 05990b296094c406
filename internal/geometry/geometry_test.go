package geometry

import (
	"math"
	"testing"
)

func TestRect_Basics(t *testing.T) {
	r := Rect{X: 10, Y: 20, W: 30, H: 40}

	if got := r.Right(); got != 40 {
		t.Errorf("Right() = %d, want 40", got)
	}
	if got := r.Bottom(); got != 60 {
		t.Errorf("Bottom() = %d, want 60", got)
	}
	if r.IsEmpty() {
		t.Error("expected non-empty rect")
	}
	if !(Rect{W: 0, H: 10}).IsEmpty() {
		t.Error("expected zero-width rect to be empty")
	}
	if !r.Contains(Point{X: 10, Y: 20}) {
		t.Error("expected top-left corner to be contained")
	}
	if r.Contains(Point{X: 40, Y: 20}) {
		t.Error("expected exclusive right edge to not be contained")
	}
	if got := r.Center(); got != (Point{X: 25, Y: 40}) {
		t.Errorf("Center() = %+v, want {25 40}", got)
	}
}

func TestNewMapper_OffsetCentersImage(t *testing.T) {
	m := NewMapper(0.5, 800, 600)

	// Scaled image is 400x300; canvas 1200x900; centered offset 400,300.
	if m.Offset != (Point{X: 400, Y: 300}) {
		t.Errorf("Offset = %+v, want {400 300}", m.Offset)
	}

	w, h := m.CanvasSize(800, 600)
	if w != 1200 || h != 900 {
		t.Errorf("CanvasSize = %dx%d, want 1200x900", w, h)
	}
}

func TestMapper_RoundTrip(t *testing.T) {
	scales := []float64{0.1, 0.33, 0.5, 0.95, 1.0, 1.1, 2.5, 10.0}
	points := []Point{
		{X: 0, Y: 0},
		{X: 1, Y: 1},
		{X: 123, Y: 456},
		{X: 799, Y: 599},
	}

	for _, scale := range scales {
		m := NewMapper(scale, 800, 600)
		for _, p := range points {
			vp := m.ToViewport(p)
			back := m.ToImage(vp)

			if abs(back.X-p.X) > 1 || abs(back.Y-p.Y) > 1 {
				t.Errorf("scale %.2f: round trip of %+v gave %+v", scale, p, back)
			}
		}
	}
}

func TestMapper_RoundTripViewportSide(t *testing.T) {
	// The inverse direction must also hold within a pixel once a viewport
	// point snaps to the image grid.
	m := NewMapper(2.0, 400, 400)
	for _, p := range []Point{{X: 800, Y: 800}, {X: 801, Y: 933}, {X: 1599, Y: 1240}} {
		img := m.ToImage(p)
		back := m.ToViewport(img)
		if abs(back.X-p.X) > 1 || abs(back.Y-p.Y) > 1 {
			t.Errorf("viewport round trip of %+v gave %+v", p, back)
		}
	}
}

func TestMapper_RectToViewport(t *testing.T) {
	m := NewMapper(0.5, 800, 600)
	r := m.RectToViewport(Rect{X: 100, Y: 100, W: 201, H: 201})

	if r.X != 450 || r.Y != 350 {
		t.Errorf("origin = (%d,%d), want (450,350)", r.X, r.Y)
	}
	// 201*0.5 = 100.5 rounds half away from zero to 101.
	if r.W != 101 || r.H != 101 {
		t.Errorf("size = %dx%d, want 101x101", r.W, r.H)
	}
}

func TestRound_HalfAwayFromZero(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{0.5, 1},
		{1.5, 2},
		{-0.5, -1},
		{-1.5, -2},
		{2.4, 2},
		{2.6, 3},
	}

	for _, tt := range tests {
		if got := round(tt.in); got != tt.want {
			t.Errorf("round(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
	// Sanity: this is math.Round's documented behavior.
	if math.Round(0.5) != 1 {
		t.Error("math.Round contract changed")
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
