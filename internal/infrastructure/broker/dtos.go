package broker

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/DanielPopoola/key-request-bridge/internal/domain"
)

// RequestMessage is the payload published on the request channel.
type RequestMessage struct {
	RequestID string    `json:"requestId"`
	Timestamp time.Time `json:"timestamp"`
}

// ResultMessage is the payload the key worker publishes on the response channel.
type ResultMessage struct {
	RequestID   string    `json:"requestId"`
	Key         string    `json:"key"`
	GeneratedAt Timestamp `json:"generatedAt"`
}

// Timestamp accepts RFC3339 and the zone-less ISO form the worker emits.
// Zone-less values are read as UTC; null decodes to the zero time.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("generatedAt: %w", err)
	}
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}

	for _, layout := range timestampLayouts {
		parsed, err := time.ParseInLocation(layout, raw, time.UTC)
		if err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("generatedAt: unrecognised timestamp %q", raw)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

func EncodeRequest(record domain.RequestRecord) ([]byte, error) {
	data, err := json.Marshal(RequestMessage{
		RequestID: record.RequestID,
		Timestamp: record.Timestamp.UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return data, nil
}

// DecodeResult parses and validates an inbound result. Errors carry
// domain.ErrCodeInvalidResult.
func DecodeResult(data []byte) (domain.GeneratedResult, error) {
	var msg ResultMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return domain.GeneratedResult{}, domain.NewInvalidResultError(err)
	}

	result := domain.GeneratedResult{
		RequestID:   msg.RequestID,
		Key:         msg.Key,
		GeneratedAt: msg.GeneratedAt.Time,
	}
	if err := result.Validate(); err != nil {
		return domain.GeneratedResult{}, domain.NewInvalidResultError(err)
	}
	return result, nil
}
