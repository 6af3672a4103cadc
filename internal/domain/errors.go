package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound reports that an identifier does not resolve to a vehicle.
var ErrNotFound = errors.New("vehicle not found")

// ErrUnauthorized reports a missing or invalid API key. No detail beyond
// this is ever attached.
var ErrUnauthorized = errors.New("unauthorized")

// ValidationError reports a missing or empty required field. It is detected
// before any mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// StorageError wraps a transaction failure. Callers see a generic server
// failure; the wrapped cause goes to logs only.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsStorage reports whether err is a StorageError.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
