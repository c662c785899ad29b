package application_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/DanielPopoola/key-request-bridge/internal/application"
	"github.com/DanielPopoola/key-request-bridge/internal/domain"
	"github.com/DanielPopoola/key-request-bridge/internal/infrastructure/broker"
	"github.com/stretchr/testify/assert"
)

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantStatus   int
		wantCode     string
		wantCategory application.ErrorCategory
	}{
		{
			name:         "broker unavailable",
			err:          application.NewBrokerUnavailableError(broker.ErrClosed),
			wantStatus:   http.StatusServiceUnavailable,
			wantCode:     application.ErrCodeBrokerUnavailable,
			wantCategory: application.CategoryInfrastructure,
		},
		{
			name:         "method not allowed",
			err:          application.NewMethodNotAllowedError(),
			wantStatus:   http.StatusMethodNotAllowed,
			wantCode:     application.ErrCodeMethodNotAllowed,
			wantCategory: application.CategoryClientError,
		},
		{
			name:         "invalid input",
			err:          application.NewInvalidInputError(errors.New("limit must be positive")),
			wantStatus:   http.StatusBadRequest,
			wantCode:     application.ErrCodeInvalidInput,
			wantCategory: application.CategoryClientError,
		},
		{
			name:         "timeout",
			err:          application.NewTimeoutError(),
			wantStatus:   http.StatusServiceUnavailable,
			wantCode:     application.ErrCodeTimeout,
			wantCategory: application.CategoryTransient,
		},
		{
			name:         "invalid result",
			err:          domain.NewInvalidResultError(errors.New("bad json")),
			wantStatus:   http.StatusBadRequest,
			wantCode:     domain.ErrCodeInvalidResult,
			wantCategory: application.CategoryDataError,
		},
		{
			name:         "wrapped broker closed",
			err:          fmt.Errorf("publish: %w", broker.ErrClosed),
			wantStatus:   http.StatusServiceUnavailable,
			wantCode:     application.ErrCodeBrokerUnavailable,
			wantCategory: application.CategoryInfrastructure,
		},
		{
			name:         "deadline exceeded",
			err:          context.DeadlineExceeded,
			wantStatus:   http.StatusServiceUnavailable,
			wantCode:     application.ErrCodeTimeout,
			wantCategory: application.CategoryTransient,
		},
		{
			name:         "plain error",
			err:          errors.New("boom"),
			wantStatus:   http.StatusInternalServerError,
			wantCode:     application.ErrCodeInternal,
			wantCategory: application.CategoryTransient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, application.ToHTTPStatus(tt.err))
			assert.Equal(t, tt.wantCode, application.ToErrorCode(tt.err))
			assert.Equal(t, tt.wantCategory, application.CategorizeError(tt.err))
		})
	}
}

func TestErrorMapping_Nil(t *testing.T) {
	assert.Equal(t, http.StatusOK, application.ToHTTPStatus(nil))
	assert.Equal(t, application.ErrorCategory(""), application.CategorizeError(nil))
}

func TestServiceErrorCodesAreClassified(t *testing.T) {
	// Every constructor must land in a concrete category, never the fallback.
	for _, err := range []*application.ServiceError{
		application.NewBrokerUnavailableError(nil),
		application.NewInternalError(nil),
		application.NewInvalidInputError(nil),
		application.NewMethodNotAllowedError(),
	} {
		t.Run(err.Code, func(t *testing.T) {
			assert.NotEqual(t, application.CategoryTransient, application.CategorizeError(err))
		})
	}
}
