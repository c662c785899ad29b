package services

import "github.com/DanielPopoola/key-request-bridge/internal/domain"

func applyLimit(results []domain.GeneratedResult, limit *int) []domain.GeneratedResult {
	if limit == nil || *limit < 0 || *limit >= len(results) {
		return results
	}
	return results[:*limit]
}
