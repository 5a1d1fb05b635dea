package database

import "errors"

// Shared sentinel errors of the booking core. Callers match with errors.Is;
// the HTTP layer maps them onto response codes.
var (
	ErrNotFound               = errors.New("record not found")
	ErrForbidden              = errors.New("operation not permitted for this identity")
	ErrNoRoomAvailable        = errors.New("no room available for the requested stay")
	ErrValidation             = errors.New("validation failed")
	ErrConcurrentModification = errors.New("request was modified concurrently, reload and retry")
)
