package broker_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DanielPopoola/key-request-bridge/internal/config"
	"github.com/DanielPopoola/key-request-bridge/internal/infrastructure/broker"
	"github.com/DanielPopoola/key-request-bridge/internal/infrastructure/broker/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type BrokerIntegrationSuite struct {
	suite.Suite
	driver string
	setup  func(t *testing.T) *testhelpers.TestBroker

	broker broker.Broker
}

func TestNATSIntegration(t *testing.T) {
	suite.Run(t, &BrokerIntegrationSuite{driver: "nats", setup: testhelpers.SetupNATS})
}

func TestRedisIntegration(t *testing.T) {
	suite.Run(t, &BrokerIntegrationSuite{driver: "redis", setup: testhelpers.SetupRedis})
}

func TestRabbitMQIntegration(t *testing.T) {
	suite.Run(t, &BrokerIntegrationSuite{driver: "amqp", setup: testhelpers.SetupRabbitMQ})
}

func (s *BrokerIntegrationSuite) SetupSuite() {
	tb := s.setup(s.T())

	b, err := broker.Open(context.Background(), config.BrokerConfig{
		Driver:          s.driver,
		URL:             tb.URL,
		RequestChannel:  "key-requests",
		ResponseChannel: "generated-keys",
		Prefetch:        8,
		ClientName:      "bridge-test",
		ConnectTimeout:  10 * time.Second,
		BufferSize:      16,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.Require().NoError(err)
	s.broker = b
}

func (s *BrokerIntegrationSuite) TearDownSuite() {
	if s.broker != nil {
		s.NoError(s.broker.Close())
	}
}

func (s *BrokerIntegrationSuite) channel(name string) string {
	return fmt.Sprintf("%s-%s-%d", name, s.driver, time.Now().UnixNano())
}

func (s *BrokerIntegrationSuite) TestDriverAndPing() {
	s.Equal(s.driver, s.broker.Driver())
	s.NoError(s.broker.Ping(context.Background()))
}

func (s *BrokerIntegrationSuite) TestRoundTrip() {
	t := s.T()
	ctx := context.Background()
	channel := s.channel("generated-keys")

	sub, err := s.broker.Subscribe(ctx, channel)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.broker.Publish(ctx, channel, []byte(fmt.Sprintf(`{"n":%d}`, i))))
	}

	got := make(map[string]bool)
	for i := 0; i < 3; i++ {
		msg := receive(t, sub)
		got[string(msg.Data)] = true
		assert.NoError(t, msg.Ack())
	}
	assert.Len(t, got, 3)
}

func (s *BrokerIntegrationSuite) TestUnsubscribeClosesMessages() {
	t := s.T()
	ctx := context.Background()

	sub, err := s.broker.Subscribe(ctx, s.channel("unsub"))
	require.NoError(t, err)
	require.NoError(t, sub.Unsubscribe())

	select {
	case _, ok := <-sub.Messages():
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("messages channel not closed after unsubscribe")
	}
}

func (s *BrokerIntegrationSuite) TestRequestPublisherRoundTrip() {
	t := s.T()
	ctx := context.Background()
	channel := s.channel("key-requests")

	sub, err := s.broker.Subscribe(ctx, channel)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	publisher := broker.NewRequestPublisher(
		broker.NewRetryPublisher(s.broker, config.RetryConfig{BaseDelay: 10 * time.Millisecond, MaxRetries: 3}),
		channel,
	)
	require.NoError(t, publisher.PublishRequest(ctx, newRecord("abc")))

	msg := receive(t, sub)
	assert.JSONEq(t, `{"requestId":"abc","timestamp":"2025-03-01T10:00:00Z"}`, string(msg.Data))
	assert.NoError(t, msg.Ack())
}
