package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for the two caller-attributable failure classes. Neither
// is retried automatically.
var (
	// ErrNotFound means a referenced conversation or entry does not exist.
	ErrNotFound = errors.New("not found")

	// ErrPrecondition means an operation was attempted without a required
	// prior condition, e.g. a seller-bound transition with no seller assigned.
	ErrPrecondition = errors.New("precondition failed")
)

// StorageError wraps a failed read/write against the backing store. Surfaced
// to HTTP callers as a generic failure; swallowed per-tick by the scheduler.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// UpstreamError wraps a failure of the external processing step. The drain
// pass reports it; the scheduler loop is never stopped by it.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("processing step: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a not-found failure.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsPrecondition reports whether err is a precondition failure.
func IsPrecondition(err error) bool { return errors.Is(err, ErrPrecondition) }
