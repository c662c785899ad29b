package broker

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"
)

// RedisBroker uses Redis pub/sub. Delivery is at-most-once and only reaches
// subscribers connected at publish time.
type RedisBroker struct {
	client     *redis.Client
	bufferSize int
}

func NewRedisBroker(ctx context.Context, url string, bufferSize int) (*RedisBroker, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return NewRedisBrokerFromClient(client, bufferSize), nil
}

func NewRedisBrokerFromClient(client *redis.Client, bufferSize int) *RedisBroker {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &RedisBroker{client: client, bufferSize: bufferSize}
}

func (b *RedisBroker) Driver() string { return "redis" }

func (b *RedisBroker) Publish(ctx context.Context, channel string, data []byte) error {
	if err := ValidateChannel(channel); err != nil {
		return err
	}
	if err := b.client.Publish(ctx, channel, data).Err(); err != nil {
		if err == redis.ErrClosed {
			return ErrClosed
		}
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

func (b *RedisBroker) Subscribe(ctx context.Context, channel string) (Subscription, error) {
	if err := ValidateChannel(channel); err != nil {
		return nil, err
	}

	pubsub := b.client.Subscribe(ctx, channel)
	// wait for the subscribe confirmation so nothing published afterwards is missed
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		if err == redis.ErrClosed {
			return nil, ErrClosed
		}
		return nil, fmt.Errorf("redis subscribe %s: %w", channel, err)
	}

	sub := &redisSubscription{
		pubsub: pubsub,
		ch:     make(chan *Message, b.bufferSize),
		done:   make(chan struct{}),
	}
	go sub.relay(pubsub.Channel())

	return sub, nil
}

func (b *RedisBroker) Ping(ctx context.Context) error {
	if err := b.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (b *RedisBroker) Close() error {
	return b.client.Close()
}

type redisSubscription struct {
	pubsub *redis.PubSub
	ch     chan *Message
	done   chan struct{}
	once   sync.Once
}

// relay owns s.ch and closes it once the pubsub channel is gone.
func (s *redisSubscription) relay(in <-chan *redis.Message) {
	defer close(s.ch)

	for {
		select {
		case <-s.done:
			return
		case m, ok := <-in:
			if !ok {
				return
			}
			select {
			case s.ch <- NewMessage(m.Channel, []byte(m.Payload)):
			case <-s.done:
				return
			}
		}
	}
}

func (s *redisSubscription) Messages() <-chan *Message {
	return s.ch
}

func (s *redisSubscription) Unsubscribe() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.pubsub.Close()
	})
	if err != nil {
		return fmt.Errorf("redis unsubscribe: %w", err)
	}
	return nil
}
