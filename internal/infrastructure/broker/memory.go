package broker

import (
	"context"
	"sync"
	"sync/atomic"
)

// MemoryBroker fans every published payload out to all subscribers of the channel.
// Publish blocks until each subscriber has buffer space or ctx is done.
type MemoryBroker struct {
	bufferSize int

	mu     sync.RWMutex
	subs   map[string][]*memorySub
	closed atomic.Bool
}

type memorySub struct {
	channel string
	broker  *MemoryBroker

	mu     sync.RWMutex
	ch     chan *Message
	done   chan struct{}
	closed atomic.Bool
}

func NewMemoryBroker(bufferSize int) *MemoryBroker {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &MemoryBroker{
		bufferSize: bufferSize,
		subs:       make(map[string][]*memorySub),
	}
}

func (b *MemoryBroker) Driver() string { return "memory" }

func (b *MemoryBroker) Publish(ctx context.Context, channel string, data []byte) error {
	if err := ValidateChannel(channel); err != nil {
		return err
	}
	if b.closed.Load() {
		return ErrClosed
	}

	b.mu.RLock()
	subs := make([]*memorySub, len(b.subs[channel]))
	copy(subs, b.subs[channel])
	b.mu.RUnlock()

	for _, sub := range subs {
		payload := make([]byte, len(data))
		copy(payload, data)
		if err := sub.deliver(ctx, NewMessage(channel, payload)); err != nil {
			return err
		}
	}

	return nil
}

func (b *MemoryBroker) Subscribe(ctx context.Context, channel string) (Subscription, error) {
	if err := ValidateChannel(channel); err != nil {
		return nil, err
	}
	if b.closed.Load() {
		return nil, ErrClosed
	}

	sub := &memorySub{
		channel: channel,
		broker:  b,
		ch:      make(chan *Message, b.bufferSize),
		done:    make(chan struct{}),
	}

	b.mu.Lock()
	b.subs[channel] = append(b.subs[channel], sub)
	b.mu.Unlock()

	return sub, nil
}

func (b *MemoryBroker) Ping(ctx context.Context) error {
	if b.closed.Load() {
		return ErrClosed
	}
	return nil
}

func (b *MemoryBroker) Close() error {
	if b.closed.Swap(true) {
		return nil
	}

	b.mu.Lock()
	var all []*memorySub
	for _, subs := range b.subs {
		all = append(all, subs...)
	}
	b.subs = make(map[string][]*memorySub)
	b.mu.Unlock()

	for _, sub := range all {
		sub.shutdown()
	}
	return nil
}

// Subscribers reports how many live subscriptions a channel has.
func (b *MemoryBroker) Subscribers(channel string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[channel])
}

func (s *memorySub) deliver(ctx context.Context, msg *Message) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed.Load() {
		return nil
	}

	select {
	case s.ch <- msg:
		return nil
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *memorySub) Messages() <-chan *Message {
	return s.ch
}

func (s *memorySub) Unsubscribe() error {
	b := s.broker
	b.mu.Lock()
	subs := b.subs[s.channel]
	for i, sub := range subs {
		if sub == s {
			b.subs[s.channel] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	b.mu.Unlock()

	s.shutdown()
	return nil
}

// shutdown unblocks pending deliveries before closing the channel so a
// publisher never sends on a closed channel.
func (s *memorySub) shutdown() {
	if s.closed.Swap(true) {
		return
	}
	close(s.done)

	s.mu.Lock()
	close(s.ch)
	s.mu.Unlock()
}
