// Package rag retrieves a profile's best previous scripts to steer new
// generations.
package rag

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/illegalcall/reelwriter/internal/models"
)

// MaxExamples is the number of reference scripts fed into a prompt.
const MaxExamples = 3

// ExampleSource is the part of the record store the retriever reads from.
type ExampleSource interface {
	ListExamples(ctx context.Context, profileID string, source models.ExampleSource, limit int) ([]models.Script, error)
}

// Examples is an ordered (newest first) set of reference scripts.
type Examples struct {
	Source  models.ExampleSource `json:"source"`
	Scripts []models.Script      `json:"scripts"`
}

// Found reports whether any example was retrieved.
func (e Examples) Found() bool {
	return len(e.Scripts) > 0
}

// CacheKey is the Redis key holding a profile's cached examples.
func CacheKey(profileID string) string {
	return fmt.Sprintf("rag:examples:%s", profileID)
}

type Retriever struct {
	store ExampleSource
	cache *redis.Client
	ttl   time.Duration
}

// NewRetriever creates a retriever. cache may be nil to disable caching.
func NewRetriever(store ExampleSource, cache *redis.Client, ttl time.Duration) *Retriever {
	return &Retriever{store: store, cache: cache, ttl: ttl}
}

// Examples returns up to MaxExamples viral scripts for the profile, falling
// back to ready scripts when the profile has no viral ones. Store failures
// are returned; cache failures are logged and skipped.
func (r *Retriever) Examples(ctx context.Context, profileID string) (Examples, error) {
	if cached, ok := r.fromCache(ctx, profileID); ok {
		return cached, nil
	}

	scripts, err := r.store.ListExamples(ctx, profileID, models.SourceViral, MaxExamples)
	if err != nil {
		return Examples{}, err
	}
	examples := Examples{Source: models.SourceViral, Scripts: scripts}

	if len(scripts) == 0 {
		scripts, err = r.store.ListExamples(ctx, profileID, models.SourceReady, MaxExamples)
		if err != nil {
			return Examples{}, err
		}
		examples = Examples{Source: models.SourceReady, Scripts: scripts}
	}
	if len(examples.Scripts) == 0 {
		examples = Examples{Source: models.SourceNone}
	}

	r.toCache(ctx, profileID, examples)
	return examples, nil
}

func (r *Retriever) fromCache(ctx context.Context, profileID string) (Examples, bool) {
	if r.cache == nil {
		return Examples{}, false
	}
	data, err := r.cache.Get(ctx, CacheKey(profileID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Examples{}, false
	}
	if err != nil {
		slog.Warn("Example cache read failed", "profile_id", profileID, "error", err)
		return Examples{}, false
	}

	var examples Examples
	if err := json.Unmarshal(data, &examples); err != nil {
		slog.Warn("Discarding corrupt example cache entry", "profile_id", profileID, "error", err)
		return Examples{}, false
	}
	return examples, true
}

func (r *Retriever) toCache(ctx context.Context, profileID string, examples Examples) {
	if r.cache == nil {
		return
	}
	data, err := json.Marshal(examples)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, CacheKey(profileID), data, r.ttl).Err(); err != nil {
		slog.Warn("Example cache write failed", "profile_id", profileID, "error", err)
	}
}

// Evict drops the cached examples of a profile after its library changed.
// Failures are logged; the entry still expires after the TTL.
func (r *Retriever) Evict(ctx context.Context, profileID string) {
	if r.cache == nil {
		return
	}
	if err := Invalidate(ctx, r.cache, profileID); err != nil {
		slog.Warn("Example cache eviction failed", "profile_id", profileID, "error", err)
	}
}

// Invalidate drops the cached examples of a profile.
func Invalidate(ctx context.Context, cache *redis.Client, profileID string) error {
	return cache.Del(ctx, CacheKey(profileID)).Err()
}
