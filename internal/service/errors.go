package service

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across services. Handlers map these to HTTP
// statuses; everything else surfaces as a 500.
var (
	ErrNotFound      = errors.New("not found")
	ErrForbidden     = errors.New("forbidden")
	ErrAlreadyExists = errors.New("already exists")
	ErrNotInRelation = errors.New("relation does not exist")
	ErrSelfFollow    = errors.New("cannot subscribe to yourself")
	ErrEmptyCart     = errors.New("shopping cart is empty")
	ErrCredentials   = errors.New("invalid credentials")
)

// ValidationError is a field-scoped rejection of a write operation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func validationErr(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is a field-scoped validation
// failure.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
