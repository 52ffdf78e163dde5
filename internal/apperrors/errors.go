package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates that an operation is not valid for the resource's current state.
var ErrConflict = errors.New("state conflict")

// ErrStructural indicates that a formula graph is malformed (cycle, missing
// output node, dangling edge). Structural errors are never retried.
var ErrStructural = errors.New("structural formula error")

// ErrDataUnavailable indicates that a factor node's series has no resolvable
// observation for the evaluation date under the active version preference.
var ErrDataUnavailable = errors.New("observation data unavailable")

// ErrNoChanges indicates that a recomputation produced no price deltas, so
// there is no adjustment to propose.
var ErrNoChanges = errors.New("no changes detected")

// AppError carries an HTTP-ish status code alongside the underlying error.
// Repositories use it to surface infrastructure failures without leaking
// driver details to callers.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates an AppError wrapping an underlying cause.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFoundError creates an error wrapping ErrNotFound with a descriptive message.
func NewNotFoundError(message string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, message)
}

// NewValidationError creates an error wrapping ErrValidation with a descriptive message.
func NewValidationError(message string) error {
	return fmt.Errorf("%w: %s", ErrValidation, message)
}

// NewDuplicateError creates an error wrapping ErrDuplicate with a descriptive message.
func NewDuplicateError(message string) error {
	return fmt.Errorf("%w: %s", ErrDuplicate, message)
}
