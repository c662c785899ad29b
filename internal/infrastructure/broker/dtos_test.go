package broker_test

import (
	"testing"
	"time"

	"github.com/DanielPopoola/key-request-bridge/internal/domain"
	"github.com/DanielPopoola/key-request-bridge/internal/infrastructure/broker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecord(id string) domain.RequestRecord {
	return domain.RequestRecord{
		RequestID: id,
		Timestamp: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestEncodeRequest(t *testing.T) {
	record := newRecord("abc")
	record.Timestamp = time.Date(2025, 3, 1, 11, 0, 0, 500, time.FixedZone("CET", 3600))

	data, err := broker.EncodeRequest(record)

	require.NoError(t, err)
	assert.JSONEq(t, `{"requestId":"abc","timestamp":"2025-03-01T10:00:00.0000005Z"}`, string(data))
}

func TestDecodeResult(t *testing.T) {
	tests := []struct {
		name string
		json string
		want time.Time
	}{
		{
			name: "rfc3339 utc",
			json: `{"requestId":"abc","key":"K1","generatedAt":"2025-03-01T10:00:00Z"}`,
			want: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			name: "rfc3339 with offset",
			json: `{"requestId":"abc","key":"K1","generatedAt":"2025-03-01T12:00:00+02:00"}`,
			want: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			name: "naive iso with microseconds",
			json: `{"requestId":"abc","key":"K1","generatedAt":"2025-03-01T10:00:00.123456"}`,
			want: time.Date(2025, 3, 1, 10, 0, 0, 123456000, time.UTC),
		},
		{
			name: "naive iso without fraction",
			json: `{"requestId":"abc","key":"K1","generatedAt":"2025-03-01T10:00:00"}`,
			want: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			name: "null generatedAt",
			json: `{"requestId":"abc","key":"K1","generatedAt":null}`,
		},
		{
			name: "absent generatedAt",
			json: `{"requestId":"abc","key":"K1"}`,
		},
		{
			name: "unknown fields ignored",
			json: `{"requestId":"abc","key":"K1","worker":"w-1"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := broker.DecodeResult([]byte(tt.json))

			require.NoError(t, err)
			assert.Equal(t, "abc", result.RequestID)
			assert.Equal(t, "K1", result.Key)
			assert.True(t, tt.want.Equal(result.GeneratedAt), "got %v want %v", result.GeneratedAt, tt.want)
		})
	}
}

func TestDecodeResult_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		wantErr error
	}{
		{name: "not json", json: `not-json`},
		{name: "wrong type", json: `{"requestId":1,"key":"K1"}`},
		{name: "bad timestamp", json: `{"requestId":"abc","key":"K1","generatedAt":"yesterday"}`},
		{name: "missing requestId", json: `{"key":"K1"}`, wantErr: domain.ErrMissingRequestID},
		{name: "missing key", json: `{"requestId":"abc"}`, wantErr: domain.ErrMissingKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := broker.DecodeResult([]byte(tt.json))

			require.Error(t, err)
			assert.True(t, domain.IsErrorCode(err, domain.ErrCodeInvalidResult))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
