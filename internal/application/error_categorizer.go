package application

import (
	"context"
	"errors"
	"net/http"

	"github.com/DanielPopoola/key-request-bridge/internal/domain"
	"github.com/DanielPopoola/key-request-bridge/internal/infrastructure/broker"
)

// ErrorCategory represents the nature of an error for logging purposes
type ErrorCategory string

const (
	CategoryTransient      ErrorCategory = "TRANSIENT"
	CategoryClientError    ErrorCategory = "CLIENT_ERROR"
	CategoryInfrastructure ErrorCategory = "INFRASTRUCTURE"
	CategoryDataError      ErrorCategory = "DATA_ERROR"
)

func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return CategoryTransient
	}

	// Inbound results that fail decode or validation
	if domain.IsErrorCode(err, domain.ErrCodeInvalidResult) ||
		domain.IsErrorCode(err, domain.ErrCodeMissingRequiredField) {
		return CategoryDataError
	}

	if svcErr, ok := IsServiceError(err); ok {
		switch svcErr.Code {
		case ErrCodeInvalidInput, ErrCodeMethodNotAllowed:
			return CategoryClientError
		case ErrCodeBrokerUnavailable, ErrCodeInternal:
			return CategoryInfrastructure
		case ErrCodeTimeout:
			return CategoryTransient
		}
	}

	if errors.Is(err, broker.ErrClosed) || errors.Is(err, broker.ErrInvalidChannel) {
		return CategoryInfrastructure
	}

	return CategoryTransient
}

// ToHTTPStatus maps error to appropriate HTTP status code
func ToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	if svcErr, ok := IsServiceError(err); ok {
		return svcErr.HTTPStatus
	}

	switch {
	case domain.IsErrorCode(err, domain.ErrCodeMissingRequiredField),
		domain.IsErrorCode(err, domain.ErrCodeInvalidResult):
		return http.StatusBadRequest

	case errors.Is(err, broker.ErrClosed):
		return http.StatusServiceUnavailable

	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}

	return http.StatusInternalServerError
}

// ToErrorCode clear error code for API responses
func ToErrorCode(err error) string {
	if svcErr, ok := IsServiceError(err); ok {
		return svcErr.Code
	}

	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}

	if errors.Is(err, broker.ErrClosed) {
		return ErrCodeBrokerUnavailable
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrCodeTimeout
	}

	return ErrCodeInternal
}
