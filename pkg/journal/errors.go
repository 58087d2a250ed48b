package journal

import "errors"

// ErrNotFound is returned when no record matches.
var ErrNotFound = errors.New("journal: not found")
