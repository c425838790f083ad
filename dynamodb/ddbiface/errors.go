package ddbiface

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by callers that require an item to exist.
	// The Database operations themselves report absence as an empty result.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a transactional condition check fails.
	ErrConflict = errors.New("conflict")

	// ErrUnsupportedIndex is returned for unknown index names when a backend runs strict.
	ErrUnsupportedIndex = errors.New("unsupported index")

	// ErrValidation is returned for malformed requests.
	ErrValidation = errors.New("validation failed")
)

// TransactionCanceledError reports that a transaction was aborted because the
// action at Index failed its condition. Nothing in the batch was applied.
type TransactionCanceledError struct {
	Index  int
	Reason string
}

func (e *TransactionCanceledError) Error() string {
	return fmt.Sprintf("transaction cancelled, condition check failed for item %d: %s", e.Index, e.Reason)
}

func (e *TransactionCanceledError) Is(target error) bool {
	return target == ErrConflict
}

// ValidationError describes a malformed request.
type ValidationError struct {
	Message string
}

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
