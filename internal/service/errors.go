package service

import (
	"errors"
	"fmt"
)

// Error kinds. Services classify every failure they surface into exactly one
// of these; transports map them onto status codes without inspecting
// messages.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
)

// Error is a classified service error. Kind is one of the sentinel errors
// above; Message is safe to return to the caller.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// NotFoundf builds a NotFound error. Services also use it to mask resources
// the caller is not allowed to see.
func NotFoundf(format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

// Forbiddenf builds a Forbidden error for callers that are authenticated but
// lack the required permission.
func Forbiddenf(format string, args ...any) error {
	return &Error{Kind: ErrForbidden, Message: fmt.Sprintf(format, args...)}
}

// Conflictf builds a Conflict error for uniqueness violations.
func Conflictf(format string, args ...any) error {
	return &Error{Kind: ErrConflict, Message: fmt.Sprintf(format, args...)}
}

// InvalidInputf builds an InvalidInput error for malformed or rejected
// requests, including failed credential checks.
func InvalidInputf(format string, args ...any) error {
	return &Error{Kind: ErrInvalidInput, Message: fmt.Sprintf(format, args...)}
}
