package testhelpers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/DanielPopoola/key-request-bridge/internal/application"
	"github.com/DanielPopoola/key-request-bridge/internal/domain"
	"github.com/stretchr/testify/mock"
)

func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewResult builds a result for request id "req-<n>" with key "K<n>".
func NewResult(n int) domain.GeneratedResult {
	return domain.GeneratedResult{
		RequestID:   fmt.Sprintf("req-%d", n),
		Key:         fmt.Sprintf("K%d", n),
		GeneratedAt: time.Date(2025, 3, 1, 10, 0, n, 0, time.UTC),
	}
}

type MockRequestPublisher struct {
	mock.Mock
}

func (m *MockRequestPublisher) PublishRequest(ctx context.Context, record domain.RequestRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

type MockBroker struct {
	mock.Mock
}

func (m *MockBroker) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockBroker) Driver() string {
	return "mock"
}

type FakeStats struct {
	Accepted atomic.Uint64
	Rejected atomic.Uint64
}

func (f *FakeStats) Stats() application.ConsumerStats {
	return application.ConsumerStats{
		Accepted: f.Accepted.Load(),
		Rejected: f.Rejected.Load(),
	}
}
