package broker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPBroker maps channels onto durable RabbitMQ queues published through the
// default exchange, the layout the key worker consumes from.
type AMQPBroker struct {
	conn   *amqp.Connection
	config AMQPConfig

	mu       sync.Mutex
	pubCh    *amqp.Channel
	declared map[string]struct{}
}

type AMQPConfig struct {
	URL            string
	Name           string
	Prefetch       int
	BufferSize     int
	ConnectTimeout time.Duration
}

func NewAMQPBroker(cfg AMQPConfig) (*AMQPBroker, error) {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 256
	}

	props := amqp.NewConnectionProperties()
	if cfg.Name != "" {
		props.SetClientConnectionName(cfg.Name)
	}

	conn, err := amqp.DialConfig(cfg.URL, amqp.Config{
		Dial:       amqp.DefaultDial(cfg.ConnectTimeout),
		Properties: props,
	})
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}

	return &AMQPBroker{
		conn:     conn,
		config:   cfg,
		declared: make(map[string]struct{}),
	}, nil
}

func (b *AMQPBroker) Driver() string { return "amqp" }

func declareQueue(ch *amqp.Channel, name string) error {
	_, err := ch.QueueDeclare(name, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", name, err)
	}
	return nil
}

// publishChannel returns the shared publishing channel, reopening it if the
// server closed it after a channel-level error. Caller holds b.mu.
func (b *AMQPBroker) publishChannel() (*amqp.Channel, error) {
	if b.conn.IsClosed() {
		return nil, ErrClosed
	}
	if b.pubCh != nil && !b.pubCh.IsClosed() {
		return b.pubCh, nil
	}

	ch, err := b.conn.Channel()
	if err != nil {
		if errors.Is(err, amqp.ErrClosed) {
			return nil, ErrClosed
		}
		return nil, fmt.Errorf("open channel: %w", err)
	}
	b.pubCh = ch
	b.declared = make(map[string]struct{})
	return ch, nil
}

func (b *AMQPBroker) Publish(ctx context.Context, channel string, data []byte) error {
	if err := ValidateChannel(channel); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	ch, err := b.publishChannel()
	if err != nil {
		return err
	}

	if _, ok := b.declared[channel]; !ok {
		if err := declareQueue(ch, channel); err != nil {
			return err
		}
		b.declared[channel] = struct{}{}
	}

	err = ch.PublishWithContext(ctx, "", channel, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         data,
	})
	if err != nil {
		return fmt.Errorf("amqp publish: %w", err)
	}
	return nil
}

func (b *AMQPBroker) Subscribe(ctx context.Context, channel string) (Subscription, error) {
	if err := ValidateChannel(channel); err != nil {
		return nil, err
	}
	if b.conn.IsClosed() {
		return nil, ErrClosed
	}

	ch, err := b.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareQueue(ch, channel); err != nil {
		_ = ch.Close()
		return nil, err
	}

	if b.config.Prefetch > 0 {
		if err := ch.Qos(b.config.Prefetch, 0, false); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("set qos: %w", err)
		}
	}

	tag := b.config.Name + "-" + uuid.NewString()
	deliveries, err := ch.ConsumeWithContext(ctx, channel, tag, false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("consume %s: %w", channel, err)
	}

	sub := &amqpSubscription{
		ch:   ch,
		tag:  tag,
		out:  make(chan *Message, b.config.BufferSize),
		done: make(chan struct{}),
	}
	go sub.relay(channel, deliveries)

	return sub, nil
}

func (b *AMQPBroker) Ping(ctx context.Context) error {
	if b.conn.IsClosed() {
		return ErrClosed
	}
	return nil
}

func (b *AMQPBroker) Close() error {
	b.mu.Lock()
	if b.pubCh != nil {
		_ = b.pubCh.Close()
		b.pubCh = nil
	}
	b.mu.Unlock()

	if err := b.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		return fmt.Errorf("amqp close: %w", err)
	}
	return nil
}

type amqpSubscription struct {
	ch   *amqp.Channel
	tag  string
	out  chan *Message
	done chan struct{}
	once sync.Once
}

func (s *amqpSubscription) relay(channel string, deliveries <-chan amqp.Delivery) {
	defer close(s.out)

	for {
		select {
		case <-s.done:
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			msg := NewMessage(channel, d.Body)
			msg.ack = func() error { return d.Ack(false) }
			msg.reject = func(requeue bool) error { return d.Nack(false, requeue) }

			select {
			case s.out <- msg:
			case <-s.done:
				// unacked deliveries are returned by the server when the channel closes
				return
			}
		}
	}
}

func (s *amqpSubscription) Messages() <-chan *Message {
	return s.out
}

func (s *amqpSubscription) Unsubscribe() error {
	var err error
	s.once.Do(func() {
		err = s.ch.Cancel(s.tag, false)
		close(s.done)
		if closeErr := s.ch.Close(); closeErr != nil && !errors.Is(closeErr, amqp.ErrClosed) && err == nil {
			err = closeErr
		}
	})
	if err != nil && !errors.Is(err, amqp.ErrClosed) {
		return fmt.Errorf("amqp unsubscribe: %w", err)
	}
	return nil
}
