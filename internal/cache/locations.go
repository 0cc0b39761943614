// Package cache keeps canonical reference rows in Redis so hot lookups skip
// Postgres. Postgres stays the source of truth; callers treat every cache
// error as a miss.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"agentlyou/shared/go/models"
)

const locationKeyPrefix = "agentlyou:location:"

// DefaultLocationTTL bounds how long a location id is trusted without checking Postgres.
const DefaultLocationTTL = time.Hour

// Connect parses a redis:// URL and verifies the server answers.
func Connect(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// LocationCache stores Location rows keyed by their natural key.
type LocationCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLocationCache wraps a Redis client. A non-positive ttl uses DefaultLocationTTL.
func NewLocationCache(client *redis.Client, ttl time.Duration) *LocationCache {
	if ttl <= 0 {
		ttl = DefaultLocationTTL
	}
	return &LocationCache{client: client, ttl: ttl}
}

// LocationKey builds the Redis key for a normalized location triple.
func LocationKey(in models.LocationInput) string {
	parts := []string{
		strconv.Quote(in.Country),
		strconv.Quote(in.StateRegion),
		strconv.Quote(in.City),
	}
	return locationKeyPrefix + strings.Join(parts, ":")
}

// Get returns the cached location, or ok=false on a miss.
func (c *LocationCache) Get(ctx context.Context, in models.LocationInput) (*models.Location, bool, error) {
	raw, err := c.client.Get(ctx, LocationKey(in)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cached location: %w", err)
	}

	var loc models.Location
	if err := json.Unmarshal(raw, &loc); err != nil {
		return nil, false, fmt.Errorf("decode cached location: %w", err)
	}
	return &loc, true, nil
}

// Set stores the canonical row under its natural key.
func (c *LocationCache) Set(ctx context.Context, loc *models.Location) error {
	raw, err := json.Marshal(loc)
	if err != nil {
		return fmt.Errorf("encode location: %w", err)
	}
	if err := c.client.Set(ctx, LocationKey(loc.Key()), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set cached location: %w", err)
	}
	return nil
}

// Invalidate drops the cached entry for the triple.
func (c *LocationCache) Invalidate(ctx context.Context, in models.LocationInput) error {
	if err := c.client.Del(ctx, LocationKey(in)).Err(); err != nil {
		return fmt.Errorf("delete cached location: %w", err)
	}
	return nil
}
