package http

import "errors"

// ErrUnsupportedMediaType is returned when a request body or a requested
// extension has no registered fragment type.
var ErrUnsupportedMediaType = errors.New("unsupported media type")
