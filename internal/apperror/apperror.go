package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies the kind of failure. Callers branch on codes, never on messages.
type Code string

const (
	CodeValidation    Code = "VALIDATION"
	CodeInvalidSort   Code = "INVALID_SORT"
	CodeInvalidParent Code = "INVALID_PARENT"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeDatabase      Code = "DATABASE"
)

// Error is the error type returned by every engine operation
type Error struct {
	Code    Code
	Message string
	Field   string // offending input field, if any
	Origin  error  // underlying cause, if any
}

func (e *Error) Error() string {
	if e.Origin != nil {
		return e.Message + ": " + e.Origin.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Origin
}

// Is matches on code, so errors.Is(err, apperror.ErrNotFound) works for any
// NOT_FOUND error. An invalid sort is also a validation error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.Code == t.Code {
		return true
	}
	return e.Code == CodeInvalidSort && t.Code == CodeValidation
}

// Sentinels for errors.Is
var (
	ErrValidation    = &Error{Code: CodeValidation, Message: "validation failed"}
	ErrInvalidSort   = &Error{Code: CodeInvalidSort, Message: "invalid sort"}
	ErrInvalidParent = &Error{Code: CodeInvalidParent, Message: "invalid parent comment"}
	ErrNotFound      = &Error{Code: CodeNotFound, Message: "not found"}
	ErrConflict      = &Error{Code: CodeConflict, Message: "conflict"}
	ErrDatabase      = &Error{Code: CodeDatabase, Message: "database error"}
)

func New(code Code, message string, origin error) *Error {
	return &Error{Code: code, Message: message, Origin: origin}
}

func Validation(field, message string) *Error {
	return &Error{Code: CodeValidation, Field: field, Message: message}
}

func InvalidSort(message string) *Error {
	return &Error{Code: CodeInvalidSort, Field: "sort", Message: message}
}

func InvalidParent(message string) *Error {
	return &Error{Code: CodeInvalidParent, Field: "parent_id", Message: message}
}

func NotFound(resource, id string) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf("%s not found: %s", resource, id)}
}

func Conflict(message string, origin error) *Error {
	return &Error{Code: CodeConflict, Message: message, Origin: origin}
}

func Database(message string, origin error) *Error {
	return &Error{Code: CodeDatabase, Message: message, Origin: origin}
}

// CodeOf returns the code of the first *Error in the chain, or CodeDatabase
// for foreign errors.
func CodeOf(err error) Code {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeDatabase
}

// HTTPStatus converts an error code to an HTTP status code.
func HTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeInvalidSort:
		return http.StatusBadRequest
	case CodeInvalidParent:
		return http.StatusUnprocessableEntity
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
