// Package focus picks the paragraph a reader is looking at and decides
// which regions are dimmed around it.
package focus

import (
	"math"

	"seehuhn.de/go/geom/rect"
)

// Scan thresholds for candidate regions.
const (
	MinRegionHeight  = 20.0 // px
	MinRegionTextLen = 50   // characters
)

// Region is a candidate text block. Box is in viewport pixels with LLy as
// the top edge and URy as the bottom edge (y grows downward).
type Region struct {
	ID       string
	Box      rect.Rect
	TextLen  int
	Detached bool // removed from the document or hidden since the last scan
}

// Top returns the top edge in viewport pixels.
func (r Region) Top() float64 { return r.Box.LLy }

// Bottom returns the bottom edge in viewport pixels.
func (r Region) Bottom() float64 { return r.Box.URy }

// Height returns the region height.
func (r Region) Height() float64 { return r.Box.Dy() }

// CenterY returns the vertical center in document coordinates.
func (r Region) CenterY(scrollY float64) float64 {
	return r.Top() + scrollY + r.Height()/2
}

// InViewport reports whether any part of the region is visible.
func (r Region) InViewport(viewportHeight float64) bool {
	return r.Top() < viewportHeight && r.Bottom() > 0
}

func (r Region) usable() bool {
	return !r.Detached && finite(r.Box.LLy) && finite(r.Box.URy)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Filter drops regions that are detached, too short, or carry too little
// text to be worth focusing. Document order is preserved.
func Filter(regions []Region, minHeight float64, minTextLen int) []Region {
	out := make([]Region, 0, len(regions))
	for _, r := range regions {
		if !r.usable() || r.Height() <= minHeight || r.TextLen <= minTextLen {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Surface is the document the regions live on.
type Surface interface {
	// ScanRegions returns the current candidates in document order.
	ScanRegions() ([]Region, error)

	// ApplyFocusVisuals marks a region dimmed (blurred) or clear.
	ApplyFocusVisuals(regionID string, dimmed bool)
}
