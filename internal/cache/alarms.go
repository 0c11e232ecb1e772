package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gridscope/gridscope-backend/internal/models"

	"github.com/redis/go-redis/v9"
)

// AlarmEntry is the short-TTL mirror of an active high/critical event,
// kept for low-latency reads. The event row stays the system of record;
// a missing entry means "no active alarm known", never an error.
type AlarmEntry struct {
	EventID   string               `json:"event_id"`
	ElementID string               `json:"element_id"`
	Metric    string               `json:"metric"`
	Value     float64              `json:"value"`
	Severity  models.EventSeverity `json:"severity"`
	CreatedAt time.Time            `json:"created_at"`
}

type AlarmCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewAlarmCache wraps a Redis client. A nil client disables the cache;
// every operation becomes a no-op, which degrades read latency only.
func NewAlarmCache(rdb *redis.Client, ttl time.Duration) *AlarmCache {
	return &AlarmCache{rdb: rdb, ttl: ttl}
}

func alarmKey(elementID, metric string) string {
	return fmt.Sprintf("alarm:%s:%s", elementID, metric)
}

// Set overwrites the mirror entry for (element, metric). Repeated
// violations of the same metric are last-write-wins.
func (c *AlarmCache) Set(ctx context.Context, entry AlarmEntry) error {
	if c.rdb == nil {
		return nil
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal alarm entry: %w", err)
	}

	if err := c.rdb.Set(ctx, alarmKey(entry.ElementID, entry.Metric), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write alarm cache entry: %w", err)
	}
	return nil
}

// Get returns the mirror entry, or nil when none is cached.
func (c *AlarmCache) Get(ctx context.Context, elementID, metric string) (*AlarmEntry, error) {
	if c.rdb == nil {
		return nil, nil
	}

	data, err := c.rdb.Get(ctx, alarmKey(elementID, metric)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read alarm cache entry: %w", err)
	}

	var entry AlarmEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal alarm entry: %w", err)
	}
	return &entry, nil
}

func (c *AlarmCache) Delete(ctx context.Context, elementID, metric string) error {
	if c.rdb == nil {
		return nil
	}
	if err := c.rdb.Del(ctx, alarmKey(elementID, metric)).Err(); err != nil {
		return fmt.Errorf("failed to delete alarm cache entry: %w", err)
	}
	return nil
}

// Ping reports cache connectivity for health checks.
func (c *AlarmCache) Ping(ctx context.Context) error {
	if c.rdb == nil {
		return errors.New("alarm cache is not configured")
	}
	return c.rdb.Ping(ctx).Err()
}
