// Package errors provides the coded error taxonomy shared by every
// layer of the service. Handlers map codes to HTTP statuses; the
// service and repository layers only ever deal in codes.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Code identifies a failure class.
type Code string

const (
	ErrCodeInvalidRole       Code = "INVALID_ROLE"
	ErrCodeInvalidStatus     Code = "INVALID_STATUS"
	ErrCodeOutOfTurn         Code = "OUT_OF_TURN"
	ErrCodeDuplicateApproval Code = "DUPLICATE_APPROVAL"
	ErrCodeAlreadyFinalized  Code = "ALREADY_FINALIZED"
	ErrCodeEmptyPatch        Code = "EMPTY_PATCH"
	ErrCodeNotFound          Code = "NOT_FOUND"
	ErrCodeConflict          Code = "CONFLICT"
	ErrCodeInvalidInput      Code = "INVALID_INPUT"
	ErrCodeInternal          Code = "INTERNAL"
)

// Error is a coded error. Message is safe to return to callers;
// wrapped causes are for logs only.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// NotFound reports a missing resource.
func NotFound(resource, key string) *Error {
	return Newf(ErrCodeNotFound, "%s not found: %s", resource, key)
}

// InvalidInput reports a malformed request field.
func InvalidInput(field, message string) *Error {
	return Newf(ErrCodeInvalidInput, "invalid %s: %s", field, message)
}

// CodeOf extracts the code from err, or ErrCodeInternal for
// uncoded errors (infrastructure faults surfaced verbatim).
func CodeOf(err error) Code {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}

// MessageOf returns the caller-safe message for err.
func MessageOf(err error) string {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}

// HTTPStatus maps a code to its HTTP response status. Every
// rule-violation code maps to 400, matching the operation contract.
func HTTPStatus(code Code) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
