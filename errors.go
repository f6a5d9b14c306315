package lfsgate

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an object, lock or lock set does not exist
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a path is already locked
	ErrConflict = errors.New("conflict")
	// ErrForbidden is returned when a caller may not remove another owner's lock
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidCursor is returned when a pagination cursor names no lock
	ErrInvalidCursor = errors.New("invalid cursor")
	// ErrGeneral is returned for storage failures and malformed stored data
	ErrGeneral = errors.New("general error")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthorized is returned when authentication fails
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotImplemented is returned by the split transfer extension point
	ErrNotImplemented = errors.New("not implemented")
)

// LockConflictError reports the lock that already holds a path.
// It matches ErrConflict with errors.Is.
type LockConflictError struct {
	Lock Lock
}

func (e *LockConflictError) Error() string {
	return fmt.Sprintf("path %q already locked by lock %s", e.Lock.Path, e.Lock.ID)
}

func (e *LockConflictError) Unwrap() error {
	return ErrConflict
}

var knownErrors = []error{
	ErrNotFound,
	ErrConflict,
	ErrForbidden,
	ErrInvalidCursor,
	ErrGeneral,
	ErrInvalidInput,
	ErrUnauthorized,
	ErrNotImplemented,
	context.Canceled,
	context.DeadlineExceeded,
}

// storageError classifies adapter errors that carry no domain meaning as ErrGeneral.
func storageError(err error) error {
	for _, known := range knownErrors {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", ErrGeneral, err)
}
