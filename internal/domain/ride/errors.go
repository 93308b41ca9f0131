package ride

import "errors"

// Sentinel errors shared by the lifecycle service and its transports. Handlers
// map them to HTTP status codes with errors.Is.
var (
	ErrMissingField      = errors.New("missing required field")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrConflictRace      = errors.New("ride status changed concurrently")
)
