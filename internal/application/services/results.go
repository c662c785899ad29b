package services

import (
	"log/slog"

	"github.com/DanielPopoola/key-request-bridge/internal/application"
	"github.com/DanielPopoola/key-request-bridge/internal/domain"
)

type ResultService struct {
	store  application.ResultStore
	logger *slog.Logger
}

func NewResultService(store application.ResultStore, logger *slog.Logger) *ResultService {
	return &ResultService{store: store, logger: logger}
}

// List returns results in arrival order, optionally filtered by request ID
// and truncated to the first Limit entries.
func (s *ResultService) List(query ResultQuery) []domain.GeneratedResult {
	var results []domain.GeneratedResult
	if query.RequestID != "" {
		results = s.store.Find(query.RequestID)
	} else {
		results = s.store.Snapshot()
	}
	return applyLimit(results, query.Limit)
}

func (s *ResultService) Clear() {
	cleared := s.store.Len()
	s.store.Clear()
	s.logger.Info("generated keys cleared", "count", cleared)
}
