package tracking

import (
	"time"

	"github.com/teslashibe/go-gazereader/pkg/pacing"
)

// Config holds the timing and capacity parameters of a tracker. Unlike
// Settings, it is fixed for the life of a session.
type Config struct {
	// Smoothing
	HistorySize int // Raw samples averaged into the smoothed point (K)

	// Intake
	SampleBuffer     int     // Bounded queue between the oracle and the loop
	OutOfRangeMargin float64 // Allowed overshoot past the viewport, as a fraction

	// Timing
	FrameInterval   time.Duration // Visual refresh cadence
	OpacityThrottle time.Duration // Minimum gap between opacity updates
	GazeTimeout     time.Duration // No sample for this long = not looking
	StatusInterval  time.Duration // How often status is published

	// Paced reading
	Pacing pacing.Config
}

// DefaultConfig returns the recommended configuration for on-screen reading.
func DefaultConfig() Config {
	return Config{
		HistorySize: 30,

		SampleBuffer:     64,
		OutOfRangeMargin: 0.1,

		FrameInterval:   16 * time.Millisecond, // ~60 fps
		OpacityThrottle: 16 * time.Millisecond,
		GazeTimeout:     800 * time.Millisecond,
		StatusInterval:  250 * time.Millisecond,

		Pacing: pacing.DefaultConfig(),
	}
}

// ResponsiveConfig returns a configuration with little smoothing, for
// overlays on live pages where lag is more noticeable than jitter.
func ResponsiveConfig() Config {
	cfg := DefaultConfig()
	cfg.HistorySize = 5
	return cfg
}

// StableConfig returns a configuration with heavy smoothing, for
// document viewers where the spotlight should hold still.
func StableConfig() Config {
	cfg := DefaultConfig()
	cfg.HistorySize = 80
	return cfg
}

// ProfileConfig returns the configuration for a named profile:
// "default", "responsive" or "stable". Unknown names fall back to default.
func ProfileConfig(name string) Config {
	switch name {
	case "responsive":
		return ResponsiveConfig()
	case "stable":
		return StableConfig()
	}
	return DefaultConfig()
}
