package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a violation of a key request or result invariant
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

const (
	ErrCodeMissingRequiredField = "MISSING_REQUIRED_FIELD"
	ErrCodeInvalidResult        = "INVALID_RESULT"
)

var (
	ErrMissingRequestID = errors.New("request ID is required")
	ErrMissingKey       = errors.New("key is required")
)

func NewMissingRequiredFieldError(field string, err error) *DomainError {
	return &DomainError{
		Code:    ErrCodeMissingRequiredField,
		Message: fmt.Sprintf("%s is required", field),
		Err:     err,
	}
}

func NewInvalidResultError(err error) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidResult,
		Message: "generated result rejected",
		Err:     err,
	}
}

// IsErrorCode reports whether err is a DomainError carrying code
func IsErrorCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}
