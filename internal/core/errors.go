package core

import (
	"errors"
	"fmt"
)

// ValidationError reports input that can never succeed as given. It is
// always returned before any side effect takes place.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// NewValidationError builds a validation error for the named field.
func NewValidationError(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

// IsValidationError reports whether err wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ErrNotFound is returned by stores when the requested entity does not exist.
var ErrNotFound = errors.New("not found")

var (
	ErrInvalidDay         = NewValidationError("day_of_month", "must be between 1 and 31")
	ErrInvalidMonth       = NewValidationError("month", "must be between 1 and 12")
	ErrInvalidAmount      = NewValidationError("amount", "must be greater than zero")
	ErrNegativeAmount     = NewValidationError("amount", "must not be negative")
	ErrInvalidKind        = NewValidationError("kind", "must be 'income' or 'expense'")
	ErrEmptyDescription   = NewValidationError("description", "must not be empty")
	ErrDescriptionTooLong = NewValidationError("description", "too long (max 200 characters)")
	ErrMissingStartDate   = NewValidationError("start_date", "must be set")
	ErrEndBeforeStart     = NewValidationError("end_date", "must not be before start date")
	ErrUnknownCategory    = NewValidationError("category_id", "unknown category")
)
