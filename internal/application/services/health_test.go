package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DanielPopoola/key-request-bridge/internal/application/services"
	"github.com/DanielPopoola/key-request-bridge/internal/application/services/testhelpers"
	"github.com/DanielPopoola/key-request-bridge/internal/infrastructure/persistence/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestHealthService_Check(t *testing.T) {
	store := memory.NewResultStore()
	store.Insert(testhelpers.NewResult(1))

	stats := &testhelpers.FakeStats{}
	stats.Accepted.Store(5)
	stats.Rejected.Store(2)

	t.Run("healthy broker", func(t *testing.T) {
		b := new(testhelpers.MockBroker)
		b.On("Ping", mock.Anything).Return(nil).Once()

		report := services.NewHealthService(b, store, stats, time.Second).Check(context.Background())

		assert.True(t, report.Healthy())
		assert.Equal(t, "up", report.Broker)
		assert.Equal(t, "mock", report.Driver)
		assert.Equal(t, 1, report.Stored)
		assert.Equal(t, uint64(5), report.Accepted)
		assert.Equal(t, uint64(2), report.Rejected)
		assert.Empty(t, report.Error)
	})

	t.Run("broker down", func(t *testing.T) {
		b := new(testhelpers.MockBroker)
		b.On("Ping", mock.Anything).Return(errors.New("connection refused")).Once()

		report := services.NewHealthService(b, store, stats, 0).Check(context.Background())

		assert.False(t, report.Healthy())
		assert.Equal(t, services.StatusDegraded, report.Status)
		assert.Equal(t, "down", report.Broker)
		assert.Equal(t, "connection refused", report.Error)
	})

	t.Run("ping gets a deadline", func(t *testing.T) {
		b := new(testhelpers.MockBroker)
		b.On("Ping", mock.MatchedBy(func(ctx context.Context) bool {
			_, ok := ctx.Deadline()
			return ok
		})).Return(nil).Once()

		services.NewHealthService(b, store, stats, time.Second).Check(context.Background())

		b.AssertExpectations(t)
	})
}
