package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/DanielPopoola/key-request-bridge/internal/application"
	"github.com/DanielPopoola/key-request-bridge/internal/infrastructure/broker"
)

var ErrSubscriptionClosed = errors.New("response subscription closed by broker")

// ResponseConsumer reads generated keys from the response channel and records
// them in the result store.
type ResponseConsumer struct {
	subscriber  broker.Subscriber
	channel     string
	store       application.ResultStore
	concurrency int
	logger      *slog.Logger

	accepted atomic.Uint64
	rejected atomic.Uint64

	ready     chan struct{}
	readyOnce sync.Once
}

func NewResponseConsumer(
	subscriber broker.Subscriber,
	channel string,
	store application.ResultStore,
	concurrency int,
	logger *slog.Logger,
) *ResponseConsumer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &ResponseConsumer{
		subscriber:  subscriber,
		channel:     channel,
		store:       store,
		concurrency: concurrency,
		logger:      logger,
		ready:       make(chan struct{}),
	}
}

// Ready is closed once the subscription is established.
func (c *ResponseConsumer) Ready() <-chan struct{} {
	return c.ready
}

func (c *ResponseConsumer) Stats() application.ConsumerStats {
	return application.ConsumerStats{
		Accepted: c.accepted.Load(),
		Rejected: c.rejected.Load(),
	}
}

// Start blocks until ctx is cancelled or the broker ends the subscription.
// Deliveries still buffered at shutdown are left unacknowledged.
func (c *ResponseConsumer) Start(ctx context.Context) error {
	sub, err := c.subscriber.Subscribe(ctx, c.channel)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", c.channel, err)
	}
	c.readyOnce.Do(func() { close(c.ready) })

	c.logger.Info("starting response consumer", "channel", c.channel, "concurrency", c.concurrency)

	var wg sync.WaitGroup
	for i := 0; i < c.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.run(ctx, sub.Messages())
		}()
	}

	workersDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(workersDone)
	}()

	var result error
	select {
	case <-ctx.Done():
		<-workersDone
	case <-workersDone:
		if ctx.Err() == nil {
			result = ErrSubscriptionClosed
		}
	}

	if err := sub.Unsubscribe(); err != nil {
		c.logger.Error("failed to unsubscribe", "channel", c.channel, "error", err)
	}

	stats := c.Stats()
	c.logger.Info("stopping response consumer",
		"channel", c.channel,
		"accepted", stats.Accepted,
		"rejected", stats.Rejected,
	)
	return result
}

func (c *ResponseConsumer) run(ctx context.Context, messages <-chan *broker.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			c.handle(msg)
		}
	}
}

func (c *ResponseConsumer) handle(msg *broker.Message) {
	defer func() {
		if rec := recover(); rec != nil {
			c.rejected.Add(1)
			c.logger.Error(
				"panic recovered while handling generated key",
				"panic", rec,
				"channel", msg.Channel,
				"stack", string(debug.Stack()),
			)
			c.reject(msg)
		}
	}()

	result, err := broker.DecodeResult(msg.Data)
	if err != nil {
		c.rejected.Add(1)
		c.logger.Warn("dropping invalid generated key",
			"channel", msg.Channel,
			"category", application.CategorizeError(err),
			"error", err,
		)
		c.reject(msg)
		return
	}

	c.store.Insert(result)
	c.accepted.Add(1)

	c.logger.Info("received generated key", "request_id", result.RequestID, "key", result.Key)

	if err := msg.Ack(); err != nil {
		c.logger.Error("failed to ack generated key", "request_id", result.RequestID, "error", err)
	}
}

func (c *ResponseConsumer) reject(msg *broker.Message) {
	if err := msg.Reject(false); err != nil {
		c.logger.Error("failed to reject message", "channel", msg.Channel, "error", err)
	}
}
