package web

import "errors"

var (
	// ErrSessionClosed is returned when writing to a disconnected page.
	ErrSessionClosed = errors.New("web: session closed")

	// ErrOracleNotReady is returned when the page could not start its
	// gaze oracle in time.
	ErrOracleNotReady = errors.New("web: gaze oracle not ready")
)
