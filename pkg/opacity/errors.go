package opacity

import "errors"

// ErrUnknownFalloff is returned for an unrecognized falloff name.
var ErrUnknownFalloff = errors.New("opacity: unknown falloff type")
