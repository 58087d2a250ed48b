// Package gaze holds raw samples from the gaze estimation oracle and the
// weighted moving average that turns them into a stable screen point.
package gaze

import (
	"context"
	"fmt"
	"math"
	"time"

	"seehuhn.de/go/geom/vec"
)

// Sample is one raw estimate from the oracle, in viewport pixels.
type Sample struct {
	X, Y      float64
	Timestamp time.Time
}

// Vec returns the sample position as a vector.
func (s Sample) Vec() vec.Vec2 {
	return vec.Vec2{X: s.X, Y: s.Y}
}

// Viewport is the visible area samples are expected to fall in.
// A zero viewport disables range checks.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// IsZero reports whether the viewport size is unknown.
func (v Viewport) IsZero() bool {
	return v.Width <= 0 || v.Height <= 0
}

// Validate checks that the sample has finite coordinates inside the
// viewport, allowing margin (a fraction of each dimension) of overshoot.
// Oracles routinely predict a little past the screen edge.
func (s Sample) Validate(v Viewport, margin float64) error {
	if !finite(s.X) || !finite(s.Y) {
		return fmt.Errorf("%w: non-finite (%v, %v)", ErrInvalidSample, s.X, s.Y)
	}
	if v.IsZero() {
		return nil
	}
	mx, my := v.Width*margin, v.Height*margin
	if s.X < -mx || s.X > v.Width+mx || s.Y < -my || s.Y > v.Height+my {
		return fmt.Errorf("%w: (%.0f, %.0f) outside %.0fx%.0f", ErrOutOfRange, s.X, s.Y, v.Width, v.Height)
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Oracle is the external gaze estimator. After Begin returns nil it
// delivers samples on its own cadence until Pause.
type Oracle interface {
	Begin(ctx context.Context) error
	Pause() error
}

// Trainer receives known-target confirmations during calibration.
type Trainer interface {
	RecordTrainingPoint(x, y float64)
}
