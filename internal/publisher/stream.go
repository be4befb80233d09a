// Package publisher pushes completed decisions onto Redis Streams for
// downstream consumers (the websocket broadcaster, alerting).
package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/XavierBriggs/sharpedge/pkg/models"
)

// StreamPublisher publishes decisions to Redis Streams.
type StreamPublisher struct {
	client *redis.Client
}

// NewStreamPublisher creates a new stream publisher.
func NewStreamPublisher(client *redis.Client) *StreamPublisher {
	return &StreamPublisher{
		client: client,
	}
}

// Publish writes the decision to the sport-specific stream and the global
// stream.
func (p *StreamPublisher) Publish(ctx context.Context, decision models.Decision) error {
	if err := p.publishTo(ctx, fmt.Sprintf("decisions.analyzed.%s", decision.SportKey), decision); err != nil {
		return err
	}
	return p.publishTo(ctx, "decisions.analyzed", decision)
}

func (p *StreamPublisher) publishTo(ctx context.Context, streamKey string, decision models.Decision) error {
	decisionJSON, err := json.Marshal(decision)
	if err != nil {
		return fmt.Errorf("failed to marshal decision: %w", err)
	}

	_, err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: streamKey,
		Values: map[string]interface{}{
			"decision": string(decisionJSON),
		},
	}).Result()

	if err != nil {
		return fmt.Errorf("failed to publish to stream %s: %w", streamKey, err)
	}

	return nil
}
