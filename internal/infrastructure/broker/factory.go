package broker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/DanielPopoola/key-request-bridge/internal/config"
)

// Open connects to the broker selected by cfg.Driver.
func Open(ctx context.Context, cfg config.BrokerConfig, logger *slog.Logger) (Broker, error) {
	var (
		b   Broker
		err error
	)

	switch cfg.Driver {
	case "amqp":
		b, err = NewAMQPBroker(AMQPConfig{
			URL:            cfg.URL,
			Name:           cfg.ClientName,
			Prefetch:       cfg.Prefetch,
			BufferSize:     cfg.BufferSize,
			ConnectTimeout: cfg.ConnectTimeout,
		})
	case "nats":
		natsCfg := DefaultNATSConfig()
		natsCfg.URL = cfg.URL
		natsCfg.Name = cfg.ClientName
		natsCfg.QueueGroup = cfg.QueueGroup
		natsCfg.BufferSize = cfg.BufferSize
		natsCfg.ConnectTimeout = cfg.ConnectTimeout
		b, err = NewNATSBroker(natsCfg)
	case "redis":
		dialCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
		b, err = NewRedisBroker(dialCtx, cfg.URL, cfg.BufferSize)
	case "memory":
		b = NewMemoryBroker(cfg.BufferSize)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("broker connected",
		"driver", b.Driver(),
		"request_channel", cfg.RequestChannel,
		"response_channel", cfg.ResponseChannel,
	)
	return b, nil
}
