package domain

import "errors"

// ErrNotFound is returned by store functions when the requested schedule does
// not exist in the collection.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when input fails business rule validation
// (e.g. malformed arrival time, unknown transport type).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")
