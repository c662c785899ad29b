// Package broker is the transport boundary between the bridge and the key worker.
//
// A Broker publishes raw payloads to a named channel (a queue, subject or pub/sub
// channel depending on the driver) and hands out channel-based subscriptions.
// Drivers: RabbitMQ (amqp), NATS, Redis pub/sub and an in-process memory broker.
package broker

import (
	"context"
	"errors"
)

var (
	ErrClosed         = errors.New("broker closed")
	ErrInvalidChannel = errors.New("invalid channel name")
	ErrUnknownDriver  = errors.New("unknown broker driver")
)

// Message is a single inbound delivery.
type Message struct {
	Channel string
	Data    []byte

	ack    func() error
	reject func(requeue bool) error
}

func NewMessage(channel string, data []byte) *Message {
	return &Message{Channel: channel, Data: data}
}

// Ack confirms processing. A no-op on drivers without acknowledgements.
func (m *Message) Ack() error {
	if m.ack == nil {
		return nil
	}
	return m.ack()
}

// Reject gives the delivery back to the broker, optionally for redelivery.
func (m *Message) Reject(requeue bool) error {
	if m.reject == nil {
		return nil
	}
	return m.reject(requeue)
}

type Publisher interface {
	Publish(ctx context.Context, channel string, data []byte) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (Subscription, error)
}

type Broker interface {
	Publisher
	Subscriber

	// Ping reports whether the underlying connection is usable.
	Ping(ctx context.Context) error

	// Driver names the backend, e.g. "amqp".
	Driver() string

	Close() error
}

// Subscription is an active standing subscription.
type Subscription interface {
	// Messages is closed once the subscription ends.
	Messages() <-chan *Message

	Unsubscribe() error
}

func ValidateChannel(channel string) error {
	if channel == "" {
		return ErrInvalidChannel
	}
	return nil
}
