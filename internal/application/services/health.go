package services

import (
	"context"
	"time"

	"github.com/DanielPopoola/key-request-bridge/internal/application"
)

const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
)

type HealthReport struct {
	Status   string
	Broker   string
	Driver   string
	Stored   int
	Accepted uint64
	Rejected uint64
	Error    string
}

func (r HealthReport) Healthy() bool {
	return r.Status == StatusOK
}

type HealthService struct {
	broker  application.BrokerHealth
	store   application.ResultStore
	stats   application.StatsSource
	timeout time.Duration
}

func NewHealthService(
	broker application.BrokerHealth,
	store application.ResultStore,
	stats application.StatsSource,
	timeout time.Duration,
) *HealthService {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &HealthService{
		broker:  broker,
		store:   store,
		stats:   stats,
		timeout: timeout,
	}
}

func (s *HealthService) Check(ctx context.Context) HealthReport {
	stats := s.stats.Stats()
	report := HealthReport{
		Status:   StatusOK,
		Broker:   "up",
		Driver:   s.broker.Driver(),
		Stored:   s.store.Len(),
		Accepted: stats.Accepted,
		Rejected: stats.Rejected,
	}

	pingCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.broker.Ping(pingCtx); err != nil {
		report.Status = StatusDegraded
		report.Broker = "down"
		report.Error = err.Error()
	}
	return report
}
