package focus

import (
	"math"

	"seehuhn.de/go/geom/vec"
)

// State is the resolver's current decision.
type State struct {
	Current    string `json:"current,omitempty"`
	HasCurrent bool   `json:"has_current"`
	Active     bool   `json:"active"`
}

// Visual is one dimming assignment for the rendering surface.
type Visual struct {
	RegionID string `json:"id"`
	Dimmed   bool   `json:"dimmed"`
}

// Resolver tracks the focused region. Focus only changes when the nearest
// region changes identity; there is no distance band, so a gaze resting on
// the boundary between two paragraphs can alternate between them.
type Resolver struct {
	viewportHeight float64

	current    string
	hasCurrent bool
	active     bool
}

// NewResolver creates an inactive resolver for a viewport of the given height.
func NewResolver(viewportHeight float64) *Resolver {
	return &Resolver{viewportHeight: viewportHeight}
}

// SetViewportHeight updates the visible height after a resize.
func (r *Resolver) SetViewportHeight(h float64) {
	r.viewportHeight = h
}

// Nearest returns the visible region whose vertical center is closest to
// the gaze point in document coordinates. Ties go to the earliest region.
func (r *Resolver) Nearest(p vec.Vec2, regions []Region, scrollY float64) (Region, bool) {
	gazeY := p.Y + scrollY
	best := -1
	bestDist := math.Inf(1)
	for i, reg := range regions {
		if !reg.usable() || !reg.InViewport(r.viewportHeight) {
			continue
		}
		d := math.Abs(reg.CenterY(scrollY) - gazeY)
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return Region{}, false
	}
	return regions[best], true
}

// Update resolves the nearest region and reports whether it differs from
// the current one. Runs whether or not dimming is active so the state is
// current on reactivation.
func (r *Resolver) Update(p vec.Vec2, regions []Region, scrollY float64) (Region, bool) {
	reg, ok := r.Nearest(p, regions, scrollY)
	if !ok {
		return Region{}, false
	}
	if r.hasCurrent && reg.ID == r.current {
		return reg, false
	}
	r.current, r.hasCurrent = reg.ID, true
	return reg, true
}

// Activate turns dimming on. If nothing is focused yet, the first region
// whose top edge is inside the viewport is focused.
func (r *Resolver) Activate(regions []Region) {
	r.active = true
	if r.hasCurrent {
		return
	}
	for _, reg := range regions {
		if reg.usable() && reg.Top() >= 0 && reg.Top() < r.viewportHeight {
			r.current, r.hasCurrent = reg.ID, true
			return
		}
	}
}

// Deactivate turns dimming off. The focused region is kept.
func (r *Resolver) Deactivate() {
	r.active = false
}

// Forget drops the focused region, e.g. after it left the document.
func (r *Resolver) Forget() {
	r.current, r.hasCurrent = "", false
}

// Retain forgets the focused region if it is not among regions.
func (r *Resolver) Retain(regions []Region) {
	if !r.hasCurrent {
		return
	}
	for _, reg := range regions {
		if reg.ID == r.current && reg.usable() {
			return
		}
	}
	r.Forget()
}

// State returns the current decision.
func (r *Resolver) State() State {
	return State{Current: r.current, HasCurrent: r.hasCurrent, Active: r.active}
}

// Visuals returns the dimming assignment for every region: when active,
// everything except the focused region is dimmed; when inactive, nothing is.
func (r *Resolver) Visuals(regions []Region) []Visual {
	out := make([]Visual, 0, len(regions))
	for _, reg := range regions {
		out = append(out, Visual{
			RegionID: reg.ID,
			Dimmed:   r.active && r.hasCurrent && reg.ID != r.current,
		})
	}
	return out
}

// Apply writes visuals to a surface.
func Apply(s Surface, visuals []Visual) {
	for _, v := range visuals {
		s.ApplyFocusVisuals(v.RegionID, v.Dimmed)
	}
}
