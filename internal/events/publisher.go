// Package events publishes user events to a Redis Stream. Consumers own
// acknowledgement and retry; this side only appends.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	redislib "github.com/redis/go-redis/v9"

	"github.com/accountly/backend/domain"
)

// StreamPublisher appends event envelopes to a stream.
type StreamPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

type publisher struct {
	client *redislib.Client
	stream string
}

// NewPublisher creates a Redis Streams publisher writing to the given stream.
func NewPublisher(client *redislib.Client, stream string) StreamPublisher {
	if stream == "" {
		stream = "user.events"
	}
	return &publisher{client: client, stream: stream}
}

func (p *publisher) Publish(ctx context.Context, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	args := &redislib.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"event": payload,
		},
	}
	if _, err := p.client.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}
