package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal     ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain errors.
var (
	ErrUserNotFound = NewError(ErrCodeNotFound, "user not found")

	ErrEmailExists        = NewError(ErrCodeInvalid, "a user with this email address already exists")
	ErrFutureDateOfBirth  = NewError(ErrCodeInvalid, "the date of birth cannot be in the future")
	ErrIncompleteAddress  = NewError(ErrCodeInvalid, "every address field is required")
	ErrAddressesRequired  = NewError(ErrCodeInvalid, "at least one address is required")
	ErrPageSpecRequired   = NewError(ErrCodeInvalid, "page spec is required")
	ErrInvalidPayload     = NewError(ErrCodeInvalid, "invalid payload")

	// ErrInvalidCredentials covers both an unknown email and a wrong password,
	// so callers cannot enumerate registered accounts.
	ErrInvalidCredentials = NewError(ErrCodeUnauthorized, "invalid email or password")
	ErrInvalidToken       = NewError(ErrCodeUnauthorized, "invalid token")
	ErrTokenExpired       = NewError(ErrCodeUnauthorized, "token expired")
	ErrForbidden          = NewError(ErrCodeForbidden, "insufficient permissions")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}
