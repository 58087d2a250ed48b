package opacity

import (
	"errors"
	"math"
	"testing"
	"time"

	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

func TestCompute_GaussianEndpoints(t *testing.T) {
	gaze := vec.Vec2{X: 300, Y: 300}

	if got := Compute(gaze, gaze, 200, 0.15, 1.0, Gaussian); math.Abs(got-1.0) > 1e-12 {
		t.Errorf("Expected max opacity at distance 0, got %v", got)
	}
	for _, dist := range []float64{200, 201, 1000} {
		c := vec.Vec2{X: 300 + dist, Y: 300}
		if got := Compute(c, gaze, 200, 0.15, 1.0, Gaussian); got != 0.15 {
			t.Errorf("Expected exactly min opacity at distance %v, got %v", dist, got)
		}
	}
}

func TestCompute_LinearMonotonic(t *testing.T) {
	gaze := vec.Vec2{}
	prev := math.Inf(1)
	for d := 0.0; d <= 200; d += 2.5 {
		got := Compute(vec.Vec2{X: d}, gaze, 200, 0.2, 0.9, Linear)
		if got > prev {
			t.Fatalf("Linear opacity increased at distance %v: %v > %v", d, got, prev)
		}
		if got < 0.2 || got > 0.9 {
			t.Fatalf("Opacity %v out of [0.2, 0.9] at distance %v", got, d)
		}
		prev = got
	}
	if got := Compute(vec.Vec2{X: 100}, gaze, 200, 0.2, 0.9, Linear); math.Abs(got-0.55) > 1e-12 {
		t.Errorf("Expected 0.55 halfway, got %v", got)
	}
}

func TestCompute_GaussianSharperThanLinearAtEdge(t *testing.T) {
	gaze := vec.Vec2{}
	// Near the radius the gaussian has already fallen further.
	g := Compute(vec.Vec2{X: 150}, gaze, 200, 0, 1, Gaussian)
	l := Compute(vec.Vec2{X: 150}, gaze, 200, 0, 1, Linear)
	if g >= l {
		t.Errorf("Expected gaussian (%v) below linear (%v) at 0.75 radius", g, l)
	}
}

func TestCompute_StaleCenter(t *testing.T) {
	c := vec.Vec2{X: math.NaN(), Y: 10}
	if got := Compute(c, vec.Vec2{}, 200, 0.15, 1, Gaussian); got != 0.15 {
		t.Errorf("Expected min opacity for a NaN center, got %v", got)
	}
}

func TestParseFalloff(t *testing.T) {
	tests := []struct {
		in      string
		want    Falloff
		wantErr bool
	}{
		{"gaussian", Gaussian, false},
		{"Linear", Linear, false},
		{"", Gaussian, false},
		{"cubic", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseFalloff(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFalloff(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, ErrUnknownFalloff) {
			t.Errorf("Expected ErrUnknownFalloff, got %v", err)
		}
		if err == nil && got != tt.want {
			t.Errorf("ParseFalloff(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestField_ComputeAndReset(t *testing.T) {
	f := NewField(DefaultParams())
	f.SetFragments([]Fragment{
		{ID: "near", Box: rect.Rect{LLx: 90, LLy: 90, URx: 110, URy: 110}},
		{ID: "far", Box: rect.Rect{LLx: 900, LLy: 900, URx: 920, URy: 920}},
	})

	w := f.Compute(vec.Vec2{X: 100, Y: 100})
	if len(w) != 2 || w[0].ID != "near" || w[0].Opacity != 1.0 {
		t.Errorf("Expected near fragment fully visible, got %+v", w)
	}
	if w[1].Opacity != 0.15 {
		t.Errorf("Expected far fragment at min opacity, got %v", w[1].Opacity)
	}

	for _, r := range f.Reset() {
		if r.Opacity != Full {
			t.Errorf("Expected full opacity after reset, %s=%v", r.ID, r.Opacity)
		}
	}
}

func TestField_ComputeDoesNotAllocate(t *testing.T) {
	f := NewField(DefaultParams())
	frags := make([]Fragment, 300)
	for i := range frags {
		x := float64(i * 10)
		frags[i] = Fragment{ID: "f", Box: rect.Rect{LLx: x, LLy: 0, URx: x + 8, URy: 12}}
	}
	f.SetFragments(frags)

	allocs := testing.AllocsPerRun(50, func() {
		f.Compute(vec.Vec2{X: 400, Y: 6})
	})
	if allocs != 0 {
		t.Errorf("Expected no allocations per tick, got %v", allocs)
	}
}

func TestThrottle(t *testing.T) {
	th := NewThrottle(16 * time.Millisecond)
	t0 := time.Unix(1000, 0)

	if !th.Allow(t0) {
		t.Error("Expected first update allowed")
	}
	if th.Allow(t0.Add(10 * time.Millisecond)) {
		t.Error("Expected update inside the interval to be throttled")
	}
	if !th.Allow(t0.Add(16 * time.Millisecond)) {
		t.Error("Expected update at the interval allowed")
	}
	th.Reset()
	if !th.Allow(t0.Add(17 * time.Millisecond)) {
		t.Error("Expected update allowed after Reset")
	}
}
