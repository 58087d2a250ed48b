package calibration

import "errors"

var (
	// ErrNotStarted is returned when a confirmation arrives with no sequence running.
	ErrNotStarted = errors.New("calibration: not started")

	// ErrNoViewport is returned when Begin is called without a known viewport.
	ErrNoViewport = errors.New("calibration: viewport size unknown")
)
