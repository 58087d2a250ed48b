// Package opacity computes a spotlight of visibility around the gaze
// point: fragments near it are fully visible, distant ones fade to a floor.
package opacity

import (
	"fmt"
	"math"
	"strings"

	"seehuhn.de/go/geom/vec"
)

// Falloff selects the distance-to-visibility curve.
type Falloff int

const (
	// Gaussian gives a sharper spotlight edge around half the radius.
	Gaussian Falloff = iota
	// Linear fades evenly from the center to the radius.
	Linear
)

func (f Falloff) String() string {
	switch f {
	case Gaussian:
		return "gaussian"
	case Linear:
		return "linear"
	}
	return fmt.Sprintf("falloff(%d)", int(f))
}

// ParseFalloff parses "gaussian" or "linear". The empty string is Gaussian.
func ParseFalloff(s string) (Falloff, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "gaussian":
		return Gaussian, nil
	case "linear":
		return Linear, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFalloff, s)
}

// Compute returns the opacity of a fragment centered at center for a gaze
// at gaze. At or beyond radius the result is exactly minOpacity; a stale
// (NaN) center also yields minOpacity.
func Compute(center, gaze vec.Vec2, radius, minOpacity, maxOpacity float64, falloff Falloff) float64 {
	dist := center.Sub(gaze).Length()
	if !(dist < radius) {
		return minOpacity
	}
	d := dist / radius

	var o float64
	switch falloff {
	case Linear:
		o = maxOpacity - d*(maxOpacity-minOpacity)
	default:
		o = minOpacity + (maxOpacity-minOpacity)*math.Exp(-(2*d)*(2*d))
	}
	return clamp(o, minOpacity, maxOpacity)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
