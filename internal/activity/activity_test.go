package activity

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounter(t *testing.T) {
	miniRedis, err := miniredis.Run()
	require.NoError(t, err)
	defer miniRedis.Close()

	c := NewCounter(redis.NewClient(&redis.Options{Addr: miniRedis.Addr()}))
	ctx := context.Background()
	day := time.Date(2026, 10, 19, 22, 0, 0, 0, time.UTC)

	require.NoError(t, c.Incr(ctx, "p1", "script.generated", day))
	require.NoError(t, c.Incr(ctx, "p1", "script.generated", day.Add(time.Hour)))
	require.NoError(t, c.Incr(ctx, "p1", "script.remixed", day))

	counts, err := c.Day(ctx, "p1", day)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"script.generated": 2, "script.remixed": 1}, counts)

	assert.Equal(t, "activity:p1:2026-10-19", Key("p1", day))
	assert.True(t, miniRedis.TTL(Key("p1", day)) > 0)

	next, err := c.Day(ctx, "p1", day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, next)
}

func TestParseDay(t *testing.T) {
	now := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

	d, err := ParseDay("", now)
	require.NoError(t, err)
	assert.Equal(t, now, d)

	d, err = ParseDay("2026-10-01", now)
	require.NoError(t, err)
	assert.Equal(t, 1, d.Day())

	_, err = ParseDay("yesterday", now)
	assert.Error(t, err)
}
