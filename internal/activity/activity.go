// Package activity keeps per-profile daily counters of library events in
// Redis.
package activity

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	dayLayout = "2006-01-02"
	retention = 30 * 24 * time.Hour
)

// Key is the hash holding one profile's counters for one UTC day.
func Key(profileID string, day time.Time) string {
	return fmt.Sprintf("activity:%s:%s", profileID, day.UTC().Format(dayLayout))
}

type Counter struct {
	redis *redis.Client
}

func NewCounter(client *redis.Client) *Counter {
	return &Counter{redis: client}
}

// Incr bumps the counter of an event type for the day of at.
func (c *Counter) Incr(ctx context.Context, profileID, eventType string, at time.Time) error {
	key := Key(profileID, at)
	_, err := c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, key, eventType, 1)
		pipe.Expire(ctx, key, retention)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}
	return nil
}

// Day returns the counters of a profile for the day of at. Days without
// activity return an empty map.
func (c *Counter) Day(ctx context.Context, profileID string, at time.Time) (map[string]int64, error) {
	raw, err := c.redis.HGetAll(ctx, Key(profileID, at)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read activity: %w", err)
	}
	counts := make(map[string]int64, len(raw))
	for field, value := range raw {
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			continue
		}
		counts[field] = n
	}
	return counts, nil
}

// ParseDay parses a YYYY-MM-DD day. An empty string means today.
func ParseDay(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return now.UTC(), nil
	}
	return time.Parse(dayLayout, s)
}
