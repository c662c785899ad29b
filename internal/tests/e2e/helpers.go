package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DanielPopoola/key-request-bridge/internal/api"
	"github.com/DanielPopoola/key-request-bridge/internal/application/services"
	"github.com/DanielPopoola/key-request-bridge/internal/config"
	"github.com/DanielPopoola/key-request-bridge/internal/infrastructure/broker"
	"github.com/DanielPopoola/key-request-bridge/internal/infrastructure/persistence/memory"
	"github.com/DanielPopoola/key-request-bridge/internal/interfaces/rest/handlers"
	"github.com/DanielPopoola/key-request-bridge/internal/interfaces/rest/middleware"
	"github.com/DanielPopoola/key-request-bridge/internal/worker"
	"github.com/stretchr/testify/require"
)

const (
	requestChannel  = "key-requests"
	responseChannel = "generated-keys"
)

// Bridge is the full service running in-process against the memory broker.
type Bridge struct {
	Broker   *broker.MemoryBroker
	Store    *memory.ResultStore
	Consumer *worker.ResponseConsumer
	Server   *httptest.Server
	Client   *TestClient

	cancel context.CancelFunc
	done   chan error
}

func StartBridge(t *testing.T) *Bridge {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	b := broker.NewMemoryBroker(256)
	store := memory.NewResultStore()

	publisher := broker.NewRequestPublisher(
		broker.NewRetryPublisher(b, config.RetryConfig{BaseDelay: time.Millisecond, MaxRetries: 3}),
		requestChannel,
	)
	consumer := worker.NewResponseConsumer(b, responseChannel, store, 4, logger)

	h := handlers.NewHandlers(
		services.NewRequestService(publisher, logger),
		services.NewResultService(store, logger),
		services.NewHealthService(b, store, consumer, time.Second),
		logger,
	)

	doc, err := api.Spec()
	require.NoError(t, err)
	validate, err := middleware.OpenAPIValidator(doc, logger)
	require.NoError(t, err)

	mux := http.NewServeMux()
	api.RegisterDocsRoutes(mux)
	h.RegisterRoutes(mux)

	handler := validate(mux)
	handler = middleware.Recovery(logger)(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Timeout(5 * time.Second)(handler)

	ctx, cancel := context.WithCancel(context.Background())
	bridge := &Bridge{
		Broker:   b,
		Store:    store,
		Consumer: consumer,
		Server:   httptest.NewServer(handler),
		cancel:   cancel,
		done:     make(chan error, 1),
	}
	bridge.Client = NewTestClient(bridge.Server.URL)

	go func() { bridge.done <- consumer.Start(ctx) }()
	select {
	case <-consumer.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("response consumer did not subscribe")
	}

	t.Cleanup(bridge.Stop)
	return bridge
}

// Stop follows the production shutdown order.
func (b *Bridge) Stop() {
	b.Server.Close()
	b.cancel()
	<-b.done
	_ = b.Broker.Close()
}

// FakeWorker answers every key request with a generated key, as the real
// key worker does, unless paused.
type FakeWorker struct {
	Paused atomic.Bool
	Seen   atomic.Int64
	Served atomic.Int64
}

func StartFakeWorker(t *testing.T, b broker.Broker) *FakeWorker {
	t.Helper()

	sub, err := b.Subscribe(context.Background(), requestChannel)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sub.Unsubscribe() })

	w := &FakeWorker{}
	go func() {
		for msg := range sub.Messages() {
			w.Seen.Add(1)
			if w.Paused.Load() {
				continue
			}
			var req broker.RequestMessage
			if err := json.Unmarshal(msg.Data, &req); err != nil {
				continue
			}
			// zone-less timestamp as produced by the real worker
			payload := fmt.Sprintf(`{"requestId":%q,"key":%q,"generatedAt":%q}`,
				req.RequestID, "KEY-"+req.RequestID, time.Now().UTC().Format("2006-01-02T15:04:05.000000"))
			if err := b.Publish(context.Background(), responseChannel, []byte(payload)); err == nil {
				w.Served.Add(1)
			}
		}
	}()
	return w
}

// TestClient wraps HTTP calls to the bridge
type TestClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewTestClient(baseURL string) *TestClient {
	return &TestClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *TestClient) Do(method, path string) (int, []byte, error) {
	req, err := http.NewRequest(method, c.baseURL+path, nil)
	if err != nil {
		return 0, nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	return resp.StatusCode, body, err
}

func expectOK(status int, body []byte) error {
	if status == http.StatusOK {
		return nil
	}
	var errResp api.ErrorResponse
	_ = json.Unmarshal(body, &errResp)
	return fmt.Errorf("status %d: %s", status, errResp.Error.Message)
}

// RequestKey calls POST /keys/request and returns the request ID
func (c *TestClient) RequestKey() (string, error) {
	status, body, err := c.Do(http.MethodPost, "/keys/request")
	if err != nil {
		return "", err
	}
	if err := expectOK(status, body); err != nil {
		return "", err
	}
	return string(body), nil
}

// GeneratedKeys calls GET /keys/generated with an optional raw query
func (c *TestClient) GeneratedKeys(query string) ([]api.GeneratedKey, error) {
	path := "/keys/generated"
	if query != "" {
		path += "?" + query
	}
	status, body, err := c.Do(http.MethodGet, path)
	if err != nil {
		return nil, err
	}
	if err := expectOK(status, body); err != nil {
		return nil, err
	}

	var keys []api.GeneratedKey
	if err := json.Unmarshal(body, &keys); err != nil {
		return nil, err
	}
	return keys, nil
}

func (c *TestClient) Clear() error {
	status, body, err := c.Do(http.MethodDelete, "/keys/clear")
	if err != nil {
		return err
	}
	return expectOK(status, body)
}

func (c *TestClient) Health() (int, api.HealthResponse, error) {
	status, body, err := c.Do(http.MethodGet, "/healthz")
	if err != nil {
		return 0, api.HealthResponse{}, err
	}

	var health api.HealthResponse
	err = json.Unmarshal(body, &health)
	return status, health, err
}
