package opacity

import (
	"time"

	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

// Full is the opacity of text with no spotlight applied.
const Full = 1.0

// Params configures the spotlight.
type Params struct {
	Radius  float64 // px
	Min     float64
	Max     float64
	Falloff Falloff
}

// DefaultParams returns the recommended spotlight.
func DefaultParams() Params {
	return Params{Radius: 200, Min: 0.15, Max: 1.0, Falloff: Gaussian}
}

// At returns the opacity for one fragment center.
func (p Params) At(center, gaze vec.Vec2) float64 {
	return Compute(center, gaze, p.Radius, p.Min, p.Max, p.Falloff)
}

// Fragment is a positioned piece of text, in viewport pixels.
type Fragment struct {
	ID  string
	Box rect.Rect
}

// Weight is the opacity assigned to one fragment.
type Weight struct {
	ID      string  `json:"id"`
	Opacity float64 `json:"o"`
}

// Field holds the cached fragment centers of the current page and
// recomputes their weights for each gaze point.
type Field struct {
	params  Params
	ids     []string
	centers []vec.Vec2
	weights []Weight
}

// NewField creates an empty field.
func NewField(p Params) *Field {
	return &Field{params: p}
}

// Params returns the spotlight configuration.
func (f *Field) Params() Params { return f.params }

// SetParams replaces the spotlight configuration.
func (f *Field) SetParams(p Params) { f.params = p }

// SetFragments caches fragment centers. Call again after scroll or
// resize; stale boxes give wrong weights, not failures.
func (f *Field) SetFragments(frags []Fragment) {
	f.ids = f.ids[:0]
	f.centers = f.centers[:0]
	for _, fr := range frags {
		f.ids = append(f.ids, fr.ID)
		f.centers = append(f.centers, vec.Vec2{
			X: fr.Box.LLx + fr.Box.Dx()/2,
			Y: fr.Box.LLy + fr.Box.Dy()/2,
		})
	}
	if cap(f.weights) < len(f.ids) {
		f.weights = make([]Weight, len(f.ids))
	}
	f.weights = f.weights[:len(f.ids)]
}

// Len returns the number of fragments.
func (f *Field) Len() int { return len(f.ids) }

// Compute fills the weights for gaze. The returned slice is reused by the
// next Compute or Reset call.
func (f *Field) Compute(gaze vec.Vec2) []Weight {
	for i, c := range f.centers {
		f.weights[i] = Weight{ID: f.ids[i], Opacity: f.params.At(c, gaze)}
	}
	return f.weights
}

// Reset returns every fragment to full opacity.
func (f *Field) Reset() []Weight {
	for i := range f.ids {
		f.weights[i] = Weight{ID: f.ids[i], Opacity: Full}
	}
	return f.weights
}

// Throttle enforces a minimum interval between visual updates.
type Throttle struct {
	interval time.Duration
	last     time.Time
}

// NewThrottle creates a throttle; a zero interval allows every update.
func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{interval: interval}
}

// Allow reports whether an update may run at now, and records it if so.
func (t *Throttle) Allow(now time.Time) bool {
	if !t.last.IsZero() && now.Sub(t.last) < t.interval {
		return false
	}
	t.last = now
	return true
}

// Reset forgets the last update.
func (t *Throttle) Reset() {
	t.last = time.Time{}
}
