package redis

import (
	"context"
	"time"

	adapterredis "coinpulse/internal/adapters/redis"
	"coinpulse/internal/domain/coin"
	"coinpulse/pkg/errors"
)

const latestKey = "coinpulse:latest_coin_data:v1"

// LatestCache stores the unranked latest coin table as JSON
type LatestCache struct {
	client *adapterredis.Client
	ttl    time.Duration
}

// NewLatestCache creates a cache whose entries expire after ttl
func NewLatestCache(client *adapterredis.Client, ttl time.Duration) *LatestCache {
	return &LatestCache{client: client, ttl: ttl}
}

// Get returns the cached rows; ok is false on a miss
func (c *LatestCache) Get(ctx context.Context) (rows []coin.LatestRow, ok bool, err error) {
	err = c.client.Get(ctx, latestKey, &rows)
	if errors.Is(err, adapterredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "read latest coin cache")
	}
	return rows, true, nil
}

// Set stores rows for the configured ttl
func (c *LatestCache) Set(ctx context.Context, rows []coin.LatestRow) error {
	if rows == nil {
		rows = []coin.LatestRow{}
	}
	if err := c.client.Set(ctx, latestKey, rows, c.ttl); err != nil {
		return errors.Wrap(err, "write latest coin cache")
	}
	return nil
}

// Invalidate drops the cached table so the next read hits the database
func (c *LatestCache) Invalidate(ctx context.Context) error {
	if err := c.client.Delete(ctx, latestKey); err != nil {
		return errors.Wrap(err, "invalidate latest coin cache")
	}
	return nil
}
