package tracking

import (
	"errors"
	"fmt"
)

var (
	// ErrOracleUnavailable is returned when the gaze oracle fails to start.
	ErrOracleUnavailable = errors.New("tracking: gaze oracle unavailable")

	// ErrNotRunning is returned for commands sent after the tracker loop exited.
	ErrNotRunning = errors.New("tracking: tracker not running")

	// ErrOracleIdle is returned when calibration is requested before tracking started.
	ErrOracleIdle = errors.New("tracking: gaze oracle not started")

	// ErrNoDocument is returned for reading commands with no document loaded.
	ErrNoDocument = errors.New("tracking: no document loaded")
)

// SettingsError reports an invalid settings field.
type SettingsError struct {
	Field   string
	Message string
}

func (e *SettingsError) Error() string {
	return fmt.Sprintf("tracking: invalid %s: %s", e.Field, e.Message)
}
