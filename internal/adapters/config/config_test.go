package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coinpulse/pkg/errors"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("POSTGRES_HOST", "localhost")
	t.Setenv("POSTGRES_USER", "coinpulse")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_DB", "coinpulse")
	t.Setenv("REDIS_HOST", "localhost")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.MarketData.TopCoins)
	assert.Equal(t, 7*24*time.Hour, cfg.Feeds.Window)
	assert.Equal(t, 24*time.Hour, cfg.Job.Interval)
	assert.Equal(t, DefaultFeedURLs, cfg.Feeds.URLs)
	assert.False(t, cfg.Kafka.Enabled)
	assert.False(t, cfg.ClickHouse.Enabled)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.Contains(t, cfg.Postgres.DSN(), "dbname=coinpulse")
}

func TestLoad_FeedOverride(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("FEED_URLS", "https://a.example/rss,https://b.example/feed")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example/rss", "https://b.example/feed"}, cfg.Feeds.URLs)
}

func TestLoad_MissingRequired(t *testing.T) {
	// t.Setenv restores the previous value on cleanup; unset afterwards so envconfig sees it missing
	t.Setenv("POSTGRES_HOST", "")
	require.NoError(t, os.Unsetenv("POSTGRES_HOST"))

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("COINGECKO_TOP_COINS", "0")

	_, err := Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}

func TestDefaultFeedURLsAreWellFormed(t *testing.T) {
	seen := make(map[string]bool)
	for _, u := range DefaultFeedURLs {
		assert.Regexp(t, `^https://[^ ]+$`, u)
		assert.Equal(t, 1, countScheme(u), "feed url %q holds more than one url", u)
		assert.False(t, seen[u], "duplicate feed %q", u)
		seen[u] = true
	}
}

func countScheme(u string) int {
	n := 0
	for i := 0; i+4 <= len(u); i++ {
		if u[i:i+4] == "http" {
			n++
		}
	}
	return n
}
