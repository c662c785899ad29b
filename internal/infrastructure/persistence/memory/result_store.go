package memory

import (
	"sync"

	"github.com/DanielPopoola/key-request-bridge/internal/domain"
)

// ResultStore keeps generated results in arrival order.
// Nothing is evicted; Clear is the only removal.
type ResultStore struct {
	mu      sync.RWMutex
	results []domain.GeneratedResult
}

func NewResultStore() *ResultStore {
	return &ResultStore{}
}

// Insert appends a result. Duplicate and unknown request IDs are stored as-is.
func (s *ResultStore) Insert(result domain.GeneratedResult) {
	s.mu.Lock()
	s.results = append(s.results, result)
	s.mu.Unlock()
}

// Snapshot returns a copy of every result inserted before the call.
func (s *ResultStore) Snapshot() []domain.GeneratedResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.GeneratedResult, len(s.results))
	copy(out, s.results)
	return out
}

// Find returns the stored results for one request ID, in arrival order.
func (s *ResultStore) Find(requestID string) []domain.GeneratedResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.GeneratedResult, 0)
	for _, r := range s.results {
		if r.RequestID == requestID {
			out = append(out, r)
		}
	}
	return out
}

func (s *ResultStore) Clear() {
	s.mu.Lock()
	s.results = nil
	s.mu.Unlock()
}

func (s *ResultStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.results)
}
