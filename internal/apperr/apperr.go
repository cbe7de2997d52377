package apperr

import (
	"errors"
	"net/http"
)

// Code classifies an application error.
type Code string

const (
	// Validation is a malformed or out-of-range input. Only the first
	// violated rule is ever reported.
	Validation Code = "VALIDATION"
	// Reference is a write that names a user, category, post or comment
	// that does not exist. The message never says which one.
	Reference Code = "REFERENCE"
	// Rule is a business rule violation with a specific message
	// (self-follow, reserved name, unsupported media...).
	Rule Code = "RULE"
	// NotFound is a slug lookup miss.
	NotFound Code = "NOT_FOUND"

	Unauthorized Code = "UNAUTHORIZED"
	Forbidden    Code = "FORBIDDEN"
	Internal     Code = "INTERNAL"
)

// InternalMessage is the only text ever shown for Internal errors.
const InternalMessage = "Something went wrong. Please try again"

// AppError carries a user-visible message and, optionally, the error that caused it.
type AppError struct {
	Code    Code
	Message string
	Origin  error
}

func (e *AppError) Error() string {
	if e.Origin != nil {
		return e.Message + ": " + e.Origin.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Origin
}

// New creates an AppError.
func New(code Code, message string, origin error) *AppError {
	return &AppError{Code: code, Message: message, Origin: origin}
}

func Invalid(message string) *AppError {
	return &AppError{Code: Validation, Message: message}
}

func Failed(message string) *AppError {
	return &AppError{Code: Reference, Message: message}
}

func Broken(message string) *AppError {
	return &AppError{Code: Rule, Message: message}
}

func Missing(message string) *AppError {
	return &AppError{Code: NotFound, Message: message}
}

// Wrap turns an unexpected error into an Internal AppError.
func Wrap(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{Code: Internal, Message: InternalMessage, Origin: err}
}

// CodeOf returns the code of err, or Internal if err is not an AppError.
func CodeOf(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return Internal
}

// Is reports whether err is an AppError with the given code.
func Is(err error, code Code) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// HTTPStatus maps a code to the status sent to clients.
func HTTPStatus(code Code) int {
	switch code {
	case Validation, Reference, Rule:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
