package repository

import "errors"

// ErrVersionConflict is returned when a versioned save loses the race
// against a concurrent writer.
var ErrVersionConflict = errors.New("customer record version conflict")
