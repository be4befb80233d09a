// Package oddscache is the Redis-backed quote cache. A pipeline run reads
// one snapshot at start so mid-analysis refreshes never give it a torn view,
// and the first sight of an event records the sharp line for later
// line-movement reporting.
package oddscache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/XavierBriggs/sharpedge/pkg/models"
)

// lineOpenTTL keeps opening-line snapshots around well past game time
// without accumulating forever.
const lineOpenTTL = 7 * 24 * time.Hour

// Cache stores per-event quote sets with a TTL and explicit invalidation.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a quote cache. ttl bounds how long a quote set stays usable.
func New(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{
		client: client,
		ttl:    ttl,
	}
}

// GetEvent returns the cached event, or nil on a miss or expired entry.
func (c *Cache) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	data, err := c.client.Get(ctx, quoteKey(eventID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cached quotes: %w", err)
	}

	var event models.Event
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("failed to decode cached quotes: %w", err)
	}

	return &event, nil
}

// PutEvent stores the event's quote set, replacing any prior entry. If this
// is the first sight of the event the sharp line is snapshotted as the open.
func (c *Cache) PutEvent(ctx context.Context, event *models.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode quotes: %w", err)
	}

	if err := c.client.Set(ctx, quoteKey(event.EventID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache quotes: %w", err)
	}

	if event.Sharp != nil {
		if err := c.recordLineOpen(ctx, event); err != nil {
			return err
		}
	}

	return nil
}

// Invalidate drops the cached quotes for an event. The opening-line snapshot
// survives invalidation on purpose: it anchors line-movement reporting.
func (c *Cache) Invalidate(ctx context.Context, eventID string) error {
	if err := c.client.Del(ctx, quoteKey(eventID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate quotes: %w", err)
	}
	return nil
}

// LineOpen returns the first-seen sharp line snapshot, or nil if the event
// has never been cached.
func (c *Cache) LineOpen(ctx context.Context, eventID string) (*models.LineSnapshot, error) {
	data, err := c.client.Get(ctx, lineOpenKey(eventID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read line open: %w", err)
	}

	var snapshot models.LineSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode line open: %w", err)
	}

	return &snapshot, nil
}

// recordLineOpen stores the sharp line snapshot only if none exists yet.
func (c *Cache) recordLineOpen(ctx context.Context, event *models.Event) error {
	snapshot := models.LineSnapshot{
		AwaySpreadLine:  event.Sharp.AwaySpreadLine,
		AwaySpreadPrice: event.Sharp.AwaySpreadPrice,
		TotalLine:       event.Sharp.TotalLine,
		CapturedAt:      time.Now().UTC(),
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode line open: %w", err)
	}

	if err := c.client.SetNX(ctx, lineOpenKey(event.EventID), data, lineOpenTTL).Err(); err != nil {
		return fmt.Errorf("failed to record line open: %w", err)
	}

	return nil
}

func quoteKey(eventID string) string {
	return "quotes:event:" + eventID
}

func lineOpenKey(eventID string) string {
	return "quotes:lineopen:" + eventID
}
