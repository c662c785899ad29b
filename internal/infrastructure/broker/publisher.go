package broker

import (
	"context"

	"github.com/DanielPopoola/key-request-bridge/internal/domain"
)

// RequestPublisher encodes request records onto a fixed outbound channel.
type RequestPublisher struct {
	publisher Publisher
	channel   string
}

func NewRequestPublisher(publisher Publisher, channel string) *RequestPublisher {
	return &RequestPublisher{publisher: publisher, channel: channel}
}

func (p *RequestPublisher) PublishRequest(ctx context.Context, record domain.RequestRecord) error {
	data, err := EncodeRequest(record)
	if err != nil {
		return err
	}
	return p.publisher.Publish(ctx, p.channel, data)
}
