package rest

import (
	"github.com/DanielPopoola/key-request-bridge/internal/api"
	"github.com/DanielPopoola/key-request-bridge/internal/application/services"
	"github.com/DanielPopoola/key-request-bridge/internal/domain"
)

func ToAPIGeneratedKey(r domain.GeneratedResult) api.GeneratedKey {
	key := api.GeneratedKey{
		RequestId: r.RequestID,
		Key:       r.Key,
	}
	if !r.GeneratedAt.IsZero() {
		generatedAt := r.GeneratedAt.UTC()
		key.GeneratedAt = &generatedAt
	}
	return key
}

// ToAPIGeneratedKeys always returns a non-nil slice so an empty store encodes as [].
func ToAPIGeneratedKeys(results []domain.GeneratedResult) []api.GeneratedKey {
	keys := make([]api.GeneratedKey, 0, len(results))
	for _, r := range results {
		keys = append(keys, ToAPIGeneratedKey(r))
	}
	return keys
}

func ToAPIHealth(report services.HealthReport) api.HealthResponse {
	return api.HealthResponse{
		Status:   report.Status,
		Broker:   report.Broker,
		Driver:   report.Driver,
		Stored:   report.Stored,
		Accepted: report.Accepted,
		Rejected: report.Rejected,
		Error:    report.Error,
	}
}
