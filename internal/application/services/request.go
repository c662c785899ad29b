package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/DanielPopoola/key-request-bridge/internal/application"
	"github.com/DanielPopoola/key-request-bridge/internal/domain"
)

type RequestService struct {
	publisher application.RequestPublisher
	clock     func() time.Time
	logger    *slog.Logger
}

func NewRequestService(publisher application.RequestPublisher, logger *slog.Logger) *RequestService {
	return &RequestService{
		publisher: publisher,
		clock:     time.Now,
		logger:    logger,
	}
}

// WithClock replaces the time source used to stamp request records.
func (s *RequestService) WithClock(clock func() time.Time) *RequestService {
	s.clock = clock
	return s
}

// SubmitRequest publishes a new key request and returns its ID without
// waiting for the worker to respond.
func (s *RequestService) SubmitRequest(ctx context.Context) (string, error) {
	record := domain.NewRequestRecord(s.clock().UTC())

	if err := s.publisher.PublishRequest(ctx, record); err != nil {
		s.logger.Error("failed to publish key request",
			"request_id", record.RequestID,
			"category", application.CategorizeError(err),
			"error", err,
		)
		if errors.Is(err, context.DeadlineExceeded) {
			return "", application.NewTimeoutError()
		}
		return "", application.NewBrokerUnavailableError(err)
	}

	s.logger.Debug("key request published", "request_id", record.RequestID)
	return record.RequestID, nil
}
