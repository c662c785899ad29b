package testhelpers

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type TestBroker struct {
	Container testcontainers.Container
	URL       string
}

type brokerImage struct {
	image  string
	port   nat.Port
	scheme string
	auth   string
	env    map[string]string
	ready  string
}

var (
	natsImage = brokerImage{
		image:  "nats:2.10-alpine",
		port:   "4222",
		scheme: "nats",
		ready:  "Server is ready",
	}
	redisImage = brokerImage{
		image:  "redis:7-alpine",
		port:   "6379",
		scheme: "redis",
		ready:  "Ready to accept connections",
	}
	rabbitImage = brokerImage{
		image:  "rabbitmq:3.13-alpine",
		port:   "5672",
		scheme: "amqp",
		auth:   "testuser:testpass@",
		env: map[string]string{
			"RABBITMQ_DEFAULT_USER": "testuser",
			"RABBITMQ_DEFAULT_PASS": "testpass",
		},
		ready: "Server startup complete",
	}
)

func SetupNATS(t *testing.T) *TestBroker     { return setup(t, natsImage) }
func SetupRedis(t *testing.T) *TestBroker    { return setup(t, redisImage) }
func SetupRabbitMQ(t *testing.T) *TestBroker { return setup(t, rabbitImage) }

// setup starts the container, skipping the test in -short mode or when no
// container runtime is reachable.
func setup(t *testing.T, img brokerImage) *TestBroker {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping broker integration test in short mode")
	}

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        img.image,
		ExposedPorts: []string{string(img.port) + "/tcp"},
		Env:          img.env,
		WaitingFor: wait.ForLog(img.ready).
			WithStartupTimeout(90 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("container runtime unavailable for %s: %v", img.image, err)
	}

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, img.port)
	require.NoError(t, err)

	tb := &TestBroker{
		Container: container,
		URL:       fmt.Sprintf("%s://%s%s:%s", img.scheme, img.auth, host, port.Port()),
	}
	t.Cleanup(func() { tb.Cleanup(t) })

	return tb
}

func (tb *TestBroker) Cleanup(t *testing.T) {
	require.NoError(t, tb.Container.Terminate(context.Background()))
}
