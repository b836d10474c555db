package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coinpulse/internal/domain/coin"
	"coinpulse/internal/testsupport"
	"coinpulse/pkg/errors"
)

func TestLatestCache_RoundTrip(t *testing.T) {
	client := testsupport.NewTestRedis(t)
	cache := NewLatestCache(client, time.Minute)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	score := 0.3
	rows := []coin.LatestRow{
		{CoinID: 1, Symbol: "BTC", SentimentScore: &score, MentionsCount: 2},
		{CoinID: 2, Symbol: "ETH", NoMentions: true},
	}
	require.NoError(t, cache.Set(ctx, rows))

	got, ok, err := cache.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rows, got)

	require.NoError(t, cache.Invalidate(ctx))
	_, ok, err = cache.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLatestCache_EmptyTableIsAHit(t *testing.T) {
	client := testsupport.NewTestRedis(t)
	cache := NewLatestCache(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, nil))

	got, ok, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, got)
}

func TestRunLock(t *testing.T) {
	client := testsupport.NewTestRedis(t)
	lock := NewRunLock(client, time.Minute)
	ctx := context.Background()

	release, err := lock.Acquire(ctx)
	require.NoError(t, err)

	_, err = lock.Acquire(ctx)
	assert.True(t, errors.Is(err, errors.ErrLockNotAcquired))

	require.NoError(t, release(ctx))

	again, err := lock.Acquire(ctx)
	require.NoError(t, err)
	require.NoError(t, again(ctx))

	// releasing twice reports the lock as no longer held
	assert.Error(t, again(ctx))
}
