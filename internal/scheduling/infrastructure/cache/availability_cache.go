// Package cache provides the Redis-backed availability verdict cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/reserva/internal/scheduling/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultVerdictTTL bounds how stale an advisory verdict may get. The
// authoritative check inside the booking transaction never consults the
// cache, so a short TTL only affects UI display.
const DefaultVerdictTTL = 30 * time.Second

// RedisAvailabilityCache implements queries.AvailabilityCache. Entries are
// keyed under a per-resource generation counter so Invalidate is a single
// INCR rather than a key scan.
type RedisAvailabilityCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisAvailabilityCache creates a new RedisAvailabilityCache. A
// non-positive ttl selects DefaultVerdictTTL.
func NewRedisAvailabilityCache(client *redis.Client, ttl time.Duration) *RedisAvailabilityCache {
	if ttl <= 0 {
		ttl = DefaultVerdictTTL
	}
	return &RedisAvailabilityCache{client: client, ttl: ttl}
}

func generationKey(resourceID uuid.UUID) string {
	return fmt.Sprintf("reserva:availability:gen:%s", resourceID)
}

func entryKey(resourceID uuid.UUID, generation string, window domain.TimeRange) string {
	return fmt.Sprintf("reserva:availability:%s:%s:%d:%d",
		resourceID, generation, window.Start.UTC().UnixNano(), window.End.UTC().UnixNano())
}

func (c *RedisAvailabilityCache) generation(ctx context.Context, resourceID uuid.UUID) (string, error) {
	generation, err := c.client.Get(ctx, generationKey(resourceID)).Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	if err != nil {
		return "", err
	}
	return generation, nil
}

// Get retrieves a cached verdict. A miss returns (nil, nil).
func (c *RedisAvailabilityCache) Get(ctx context.Context, resourceID uuid.UUID, window domain.TimeRange) (*domain.Verdict, error) {
	generation, err := c.generation(ctx, resourceID)
	if err != nil {
		return nil, err
	}

	payload, err := c.client.Get(ctx, entryKey(resourceID, generation, window)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var verdict domain.Verdict
	if err := json.Unmarshal(payload, &verdict); err != nil {
		return nil, err
	}
	return &verdict, nil
}

// Set stores a verdict under the resource's current generation.
func (c *RedisAvailabilityCache) Set(ctx context.Context, resourceID uuid.UUID, window domain.TimeRange, verdict domain.Verdict) error {
	generation, err := c.generation(ctx, resourceID)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(verdict)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, entryKey(resourceID, generation, window), payload, c.ttl).Err()
}

// Invalidate drops every cached verdict for the resource by bumping its
// generation. Orphaned entries age out via their TTL.
func (c *RedisAvailabilityCache) Invalidate(ctx context.Context, resourceID uuid.UUID) error {
	return c.client.Incr(ctx, generationKey(resourceID)).Err()
}
