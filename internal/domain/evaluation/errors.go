package evaluation

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("employee not found")
	ErrMalformedImport   = errors.New("import payload must be an array of employee records")
	ErrRemoteUnavailable = errors.New("remote store unavailable")
)

// FieldError is a validation failure on a single input field.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error {
	return ErrValidation
}
