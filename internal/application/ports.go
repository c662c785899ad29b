package application

import (
	"context"

	"github.com/DanielPopoola/key-request-bridge/internal/domain"
)

// RequestPublisher hands a request record to the transport. It returns once
// the broker client accepted the message; it never waits for the worker.
type RequestPublisher interface {
	PublishRequest(ctx context.Context, record domain.RequestRecord) error
}

// ResultStore is the shared record of generated keys.
type ResultStore interface {
	Insert(result domain.GeneratedResult)
	Snapshot() []domain.GeneratedResult
	Find(requestID string) []domain.GeneratedResult
	Clear()
	Len() int
}

// BrokerHealth reports transport connectivity.
type BrokerHealth interface {
	Ping(ctx context.Context) error
	Driver() string
}

type ConsumerStats struct {
	Accepted uint64
	Rejected uint64
}

type StatsSource interface {
	Stats() ConsumerStats
}
