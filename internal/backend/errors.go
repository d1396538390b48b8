package backend

import "net/http"

// Code is a machine-readable error code shared by every backend
type Code string

const (
	CodeUserAlreadyExists  Code = "user_already_exists"
	CodeInvalidCredentials Code = "invalid_credentials"
	CodeNotAuthenticated   Code = "not_authenticated"
	CodeNotFound           Code = "not_found"
	CodeMultipleRows       Code = "multiple_rows"
	CodeRowSecurity        Code = "row_security"
	CodeInvalidRequest     Code = "invalid_request"
	CodeInternal           Code = "internal"
)

// HTTPStatus maps a code onto the status used by the REST gateway
func (c Code) HTTPStatus() int {
	switch c {
	case CodeUserAlreadyExists:
		return http.StatusUnprocessableEntity
	case CodeInvalidCredentials, CodeInvalidRequest:
		return http.StatusBadRequest
	case CodeNotAuthenticated:
		return http.StatusUnauthorized
	case CodeRowSecurity:
		return http.StatusForbidden
	case CodeNotFound, CodeMultipleRows:
		return http.StatusNotAcceptable
	}
	return http.StatusInternalServerError
}

// Error is a platform error. Two errors are the same kind when their codes match.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target carries the same code
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// NewError creates an error with a code and message
func NewError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates an error with a code and message around cause
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

var (
	ErrUserAlreadyRegistered = NewError(CodeUserAlreadyExists, "user already registered")
	ErrInvalidCredentials    = NewError(CodeInvalidCredentials, "invalid login credentials")
	ErrNotAuthenticated      = NewError(CodeNotAuthenticated, "not authenticated")
	ErrNotFound              = NewError(CodeNotFound, "no rows returned")
	ErrMultipleRows          = NewError(CodeMultipleRows, "multiple rows returned")
	ErrRowSecurity           = NewError(CodeRowSecurity, "row violates row-level security policy")
	ErrInvalidRequest        = NewError(CodeInvalidRequest, "invalid request")
)
