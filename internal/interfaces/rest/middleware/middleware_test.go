package middleware_test

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DanielPopoola/key-request-bridge/internal/api"
	"github.com/DanielPopoola/key-request-bridge/internal/interfaces/rest/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

func TestRecovery(t *testing.T) {
	handler := middleware.Recovery(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("handler exploded")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/keys/generated", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"INTERNAL_ERROR"`)
}

func TestTimeout(t *testing.T) {
	t.Run("fast handler passes through", func(t *testing.T) {
		rec := httptest.NewRecorder()
		middleware.Timeout(time.Second)(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ok", rec.Body.String())
	})

	t.Run("slow handler times out", func(t *testing.T) {
		slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		})

		rec := httptest.NewRecorder()
		middleware.Timeout(20*time.Millisecond)(slow).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), `"code":"TIMEOUT"`)
	})
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	rec := httptest.NewRecorder()
	middleware.Logging(logger)(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/keys/clear", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, buf.String(), `"method":"DELETE"`)
	assert.Contains(t, buf.String(), `"path":"/keys/clear"`)
	assert.Contains(t, buf.String(), `"status":200`)
}

func TestOpenAPIValidator(t *testing.T) {
	doc, err := api.Spec()
	require.NoError(t, err)

	validator, err := middleware.OpenAPIValidator(doc, discardLogger())
	require.NoError(t, err)
	handler := validator(okHandler())

	tests := []struct {
		name       string
		method     string
		target     string
		wantStatus int
	}{
		{"valid list", http.MethodGet, "/keys/generated", http.StatusOK},
		{"valid filters", http.MethodGet, "/keys/generated?requestId=abc&limit=2", http.StatusOK},
		{"negative limit", http.MethodGet, "/keys/generated?limit=-1", http.StatusBadRequest},
		{"non numeric limit", http.MethodGet, "/keys/generated?limit=ten", http.StatusBadRequest},
		{"submit", http.MethodPost, "/keys/request", http.StatusOK},
		{"clear", http.MethodDelete, "/keys/clear", http.StatusOK},
		{"undocumented path passes through", http.MethodGet, "/openapi.yaml", http.StatusOK},
		{"wrong method", http.MethodGet, "/keys/clear", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, nil))

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus == http.StatusBadRequest {
				assert.Contains(t, rec.Body.String(), `"code":"INVALID_INPUT"`)
			}
			if tt.wantStatus == http.StatusMethodNotAllowed {
				assert.Contains(t, rec.Body.String(), `"code":"METHOD_NOT_ALLOWED"`)
				assert.Equal(t, http.MethodDelete, rec.Header().Get("Allow"))
			}
		})
	}
}
