package broker

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/DanielPopoola/key-request-bridge/internal/config"
)

// RetryPublisher retries failed hand-offs to the broker client with
// exponential backoff and jitter.
type RetryPublisher struct {
	inner      Publisher
	baseDelay  time.Duration
	maxRetries int
}

func NewRetryPublisher(inner Publisher, cfg config.RetryConfig) *RetryPublisher {
	maxRetries := int(cfg.MaxRetries)
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &RetryPublisher{
		inner:      inner,
		baseDelay:  cfg.BaseDelay,
		maxRetries: maxRetries,
	}
}

func (r *RetryPublisher) Publish(ctx context.Context, channel string, data []byte) error {
	var lastErr error

	for attempt := 0; attempt < r.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := r.inner.Publish(ctx, channel, data)
		if err == nil {
			return nil
		}

		lastErr = err

		if !isRetryable(err) {
			return err
		}

		if attempt < r.maxRetries-1 {
			if err := sleep(ctx, r.backoff(attempt)); err != nil {
				return err
			}
		}
	}

	return fmt.Errorf("maximum retries exceeded: %w", lastErr)
}

func isRetryable(err error) bool {
	switch {
	case errors.Is(err, ErrClosed),
		errors.Is(err, ErrInvalidChannel),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}

func (r *RetryPublisher) backoff(attempt int) time.Duration {
	base := r.baseDelay * time.Duration(1<<attempt)
	if r.baseDelay <= 0 {
		return base
	}

	jitter := time.Duration(rand.Int63n(int64(r.baseDelay)))

	return base + jitter
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
