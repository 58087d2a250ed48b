package gaze

import "errors"

var (
	// ErrInvalidSample is returned for samples with missing or non-finite coordinates.
	ErrInvalidSample = errors.New("gaze: invalid sample")

	// ErrOutOfRange is returned for samples far outside the viewport.
	ErrOutOfRange = errors.New("gaze: sample out of range")
)
