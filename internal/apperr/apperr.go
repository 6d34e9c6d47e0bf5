// Package apperr defines the error taxonomy returned by the course service.
// Expected failures are values carrying a Code; callers branch with errors.Is
// against the sentinels below.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/multierr"
)

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnauthorized means the caller's role does not permit the operation
	// or no session is present.
	CodeUnauthorized Code = "UNAUTHORIZED"
	// CodeInvalidInput means one or more input fields failed validation.
	CodeInvalidInput Code = "INVALID_INPUT"
	// CodeNotFound means the targeted entity does not exist.
	CodeNotFound Code = "NOT_FOUND"
)

// Sentinels for errors.Is. Matching is by code, so an *Error carrying extra
// fields or a message still matches its sentinel.
var (
	ErrUnauthorized = &Error{Code: CodeUnauthorized, Message: "unauthorized"}
	ErrInvalidInput = &Error{Code: CodeInvalidInput, Message: "invalid input"}
	ErrNotFound     = &Error{Code: CodeNotFound, Message: "not found"}
)

// FieldError describes a single invalid input field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Error implements the error interface.
func (f *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", f.Field, f.Reason)
}

// Field creates a field validation error.
func Field(field, reason string) error {
	return &FieldError{Field: field, Reason: reason}
}

// Error is the domain error type.
type Error struct {
	Code    Code         // Machine-readable error code
	Message string       // Human-readable message
	Fields  []FieldError // Offending fields, set for CodeInvalidInput
	Cause   error        // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.FieldNames(), ", "))
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// FieldNames returns the names of the invalid fields in report order.
func (e *Error) FieldNames() []string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return names
}

// Unauthorized creates an unauthorized error with a message.
func Unauthorized(message string) *Error {
	return &Error{Code: CodeUnauthorized, Message: message}
}

// NotFound creates a not-found error with a message.
func NotFound(message string) *Error {
	return &Error{Code: CodeNotFound, Message: message}
}

// InvalidInput flattens accumulated field errors (built with multierr.Append)
// into a single InvalidInput error. It returns nil when errs is nil so callers
// can validate and return in one step.
func InvalidInput(errs error) error {
	if errs == nil {
		return nil
	}
	out := &Error{Code: CodeInvalidInput, Message: "invalid input"}
	for _, err := range multierr.Errors(errs) {
		var fe *FieldError
		if errors.As(err, &fe) {
			out.Fields = append(out.Fields, *fe)
			continue
		}
		out.Fields = append(out.Fields, FieldError{Field: "", Reason: err.Error()})
	}
	return out
}

// CodeOf returns the Code of err, or "" if err is not an *Error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// HTTPStatus maps an error to an HTTP status code. authenticated selects
// between 401 and 403 for CodeUnauthorized.
func HTTPStatus(err error, authenticated bool) int {
	switch CodeOf(err) {
	case CodeUnauthorized:
		if authenticated {
			return http.StatusForbidden
		}
		return http.StatusUnauthorized
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
