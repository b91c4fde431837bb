package services

import (
	"errors"
	"fmt"

	"github.com/boozebuddy/backend/repository"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrAlreadyAssigned is a dedup signal; callers treat it as a no-op success.
	ErrAlreadyAssigned = errors.New("already assigned")
	ErrValidation      = errors.New("validation error")
	ErrStorageFailure  = errors.New("storage failure")
	// ErrNotAssigned is returned when a scan names a pair that was never distributed.
	ErrNotAssigned = errors.New("not assigned")
)

// ValidationError names the offending field. errors.Is(err, ErrValidation) holds.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// StorageError wraps a blob or document store failure with the operation
// that hit it. errors.Is(err, ErrStorageFailure) holds.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorageFailure }

// fromRepo translates repository errors into the service taxonomy. what
// describes the addressed record for NotFound messages.
func fromRepo(op, what string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	case errors.Is(err, repository.ErrAlreadyAssigned):
		return fmt.Errorf("%s: %w", what, ErrAlreadyAssigned)
	case errors.Is(err, repository.ErrNotAssigned):
		return fmt.Errorf("%s: %w", what, ErrNotAssigned)
	default:
		return &StorageError{Op: op, Err: err}
	}
}
