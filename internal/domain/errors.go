package domain

import (
	"errors"
	"strings"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrEmailExists        = errors.New("a user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNoSession          = errors.New("no user is signed in")
	ErrMissingCourse      = errors.New("course not found")
	ErrNotOwner           = errors.New("course is owned by another instructor")
	ErrNotInstructor      = errors.New("only instructors can author courses")
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// ValidationError reports rejected input. Fields is empty when the problem
// is not tied to a single field.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		if e.Err == nil {
			return "validation failed"
		}
		return e.Err.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Error)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Code maps err to a short, stable identifier suitable for machine-readable
// output. Unknown errors map to "internal".
func Code(err error) string {
	var verr *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmailExists):
		return "email_exists"
	case errors.As(err, &verr):
		return "validation"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrNoSession):
		return "no_session"
	case errors.Is(err, ErrMissingCourse):
		return "missing_course"
	case errors.Is(err, ErrNotOwner):
		return "not_owner"
	case errors.Is(err, ErrNotInstructor):
		return "not_instructor"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "internal"
	}
}
