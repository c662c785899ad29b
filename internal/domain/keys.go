package domain

import (
	"time"

	"github.com/google/uuid"
)

// RequestRecord is the message handed to the key worker for a single submission.
// It is immutable once built.
type RequestRecord struct {
	RequestID string
	Timestamp time.Time
}

// NewRequestRecord builds a record with a fresh random (v4) request ID.
func NewRequestRecord(now time.Time) RequestRecord {
	return RequestRecord{
		RequestID: uuid.New().String(),
		Timestamp: now,
	}
}

// GeneratedResult is a key produced by the worker, correlated by RequestID only.
type GeneratedResult struct {
	RequestID   string
	Key         string
	GeneratedAt time.Time
}

// Validate checks the fields a result needs to be stored.
// Unknown request IDs are not rejected; correlation is by identifier only.
func (r GeneratedResult) Validate() error {
	if r.RequestID == "" {
		return NewMissingRequiredFieldError("requestId", ErrMissingRequestID)
	}
	if r.Key == "" {
		return NewMissingRequiredFieldError("key", ErrMissingKey)
	}
	return nil
}
