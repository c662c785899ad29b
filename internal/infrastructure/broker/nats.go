package broker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSBroker publishes on core NATS subjects.
// When QueueGroup is set, bridge replicas share the response subject as competing consumers.
type NATSBroker struct {
	conn   *nats.Conn
	config NATSConfig
}

type NATSConfig struct {
	URL            string
	Name           string
	QueueGroup     string
	BufferSize     int
	ReconnectWait  time.Duration
	MaxReconnects  int
	ConnectTimeout time.Duration
}

func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:            nats.DefaultURL,
		BufferSize:     256,
		ReconnectWait:  2 * time.Second,
		MaxReconnects:  -1,
		ConnectTimeout: 5 * time.Second,
	}
}

func NewNATSBroker(cfg NATSConfig) (*NATSBroker, error) {
	defaults := DefaultNATSConfig()
	if cfg.URL == "" {
		cfg.URL = defaults.URL
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaults.BufferSize
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaults.ConnectTimeout
	}
	if cfg.ReconnectWait <= 0 {
		cfg.ReconnectWait = defaults.ReconnectWait
	}

	conn, err := nats.Connect(cfg.URL, buildNATSOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &NATSBroker{conn: conn, config: cfg}, nil
}

func buildNATSOptions(cfg NATSConfig) []nats.Option {
	opts := []nats.Option{
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.Timeout(cfg.ConnectTimeout),
	}
	if cfg.Name != "" {
		opts = append(opts, nats.Name(cfg.Name))
	}
	return opts
}

func (b *NATSBroker) Driver() string { return "nats" }

func (b *NATSBroker) Publish(ctx context.Context, channel string, data []byte) error {
	if err := ValidateChannel(channel); err != nil {
		return err
	}
	if b.conn.IsClosed() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := b.conn.Publish(channel, data); err != nil {
		return fmt.Errorf("nats publish: %w", err)
	}
	return nil
}

func (b *NATSBroker) Subscribe(ctx context.Context, channel string) (Subscription, error) {
	if err := ValidateChannel(channel); err != nil {
		return nil, err
	}
	if b.conn.IsClosed() {
		return nil, ErrClosed
	}

	sub := &natsSubscription{
		ch:   make(chan *Message, b.config.BufferSize),
		done: make(chan struct{}),
	}

	handler := func(m *nats.Msg) {
		sub.deliver(NewMessage(m.Subject, m.Data))
	}

	var err error
	if b.config.QueueGroup != "" {
		sub.sub, err = b.conn.QueueSubscribe(channel, b.config.QueueGroup, handler)
	} else {
		sub.sub, err = b.conn.Subscribe(channel, handler)
	}
	if err != nil {
		return nil, fmt.Errorf("nats subscribe %s: %w", channel, err)
	}

	return sub, nil
}

func (b *NATSBroker) Ping(ctx context.Context) error {
	if b.conn.IsClosed() {
		return ErrClosed
	}
	timeout := b.config.ConnectTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if err := b.conn.FlushTimeout(timeout); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}
	return nil
}

func (b *NATSBroker) Close() error {
	if err := b.conn.Drain(); err != nil && err != nats.ErrConnectionClosed {
		b.conn.Close()
		return fmt.Errorf("nats drain: %w", err)
	}
	return nil
}

type natsSubscription struct {
	sub *nats.Subscription

	mu     sync.RWMutex
	ch     chan *Message
	done   chan struct{}
	closed atomic.Bool
}

// deliver runs on the nats dispatch goroutine; blocking here applies the
// client's pending limits instead of silently dropping messages.
func (s *natsSubscription) deliver(msg *Message) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed.Load() {
		return
	}
	select {
	case s.ch <- msg:
	case <-s.done:
	}
}

func (s *natsSubscription) Messages() <-chan *Message {
	return s.ch
}

func (s *natsSubscription) Unsubscribe() error {
	if s.closed.Swap(true) {
		return nil
	}
	close(s.done)

	err := s.sub.Unsubscribe()

	s.mu.Lock()
	close(s.ch)
	s.mu.Unlock()

	if err != nil && err != nats.ErrConnectionClosed && err != nats.ErrBadSubscription {
		return fmt.Errorf("nats unsubscribe: %w", err)
	}
	return nil
}
