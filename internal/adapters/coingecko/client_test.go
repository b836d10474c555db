package coingecko

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coinpulse/internal/adapters/config"
	"coinpulse/pkg/errors"
	"coinpulse/pkg/logger"
)

const marketsBody = `[
  {"id":"bitcoin","symbol":"btc","name":"Bitcoin","current_price":67123.45,"market_cap":1320000000000,"last_updated":"2025-06-01T10:00:00.000Z"},
  {"id":"ethereum","symbol":"eth","name":"Ethereum","current_price":3500.1,"market_cap":null,"last_updated":null},
  {"id":"","symbol":"bad","name":"Broken"}
]`

func testConfig(url string) config.MarketDataConfig {
	return config.MarketDataConfig{
		BaseURL:           url,
		APIKey:            "secret",
		TopCoins:          100,
		RequestsPerMinute: 0,
		Timeout:           5 * time.Second,
		MaxRetries:        2,
	}
}

func TestTopCoins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/markets", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "usd", q.Get("vs_currency"))
		assert.Equal(t, "market_cap_desc", q.Get("order"))
		assert.Equal(t, "3", q.Get("per_page"))
		assert.Equal(t, "1", q.Get("page"))
		assert.Equal(t, "false", q.Get("sparkline"))
		assert.Equal(t, "24h", q.Get("price_change_percentage"))
		assert.Equal(t, "secret", r.Header.Get("X-CG-API-Key"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(marketsBody))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), logger.NewNop())
	quotes, err := client.TopCoins(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, quotes, 2)

	btc := quotes[0]
	assert.Equal(t, "bitcoin", btc.ExternalID)
	assert.Equal(t, "BTC", btc.Symbol)
	assert.True(t, btc.PriceUSD.Valid)
	assert.Equal(t, "67123.45", btc.PriceUSD.Decimal.String())
	assert.Equal(t, time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC), btc.LastUpdated)

	eth := quotes[1]
	assert.Equal(t, "ETH", eth.Symbol)
	assert.False(t, eth.MarketCap.Valid)
	assert.True(t, eth.LastUpdated.IsZero())
}

func TestTopCoins_RetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), logger.NewNop())
	quotes, err := client.TopCoins(context.Background(), 10)

	require.NoError(t, err)
	assert.Empty(t, quotes)
	assert.Equal(t, int32(2), calls.Load())
}

func TestTopCoins_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), logger.NewNop())
	_, err := client.TopCoins(context.Background(), 10)

	require.Error(t, err)
	var httpErr *errors.HTTPStatusError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
	assert.Equal(t, int32(1), calls.Load())
}

func TestTopCoins_InvalidLimit(t *testing.T) {
	client := NewClient(testConfig("http://unused"), logger.NewNop())

	_, err := client.TopCoins(context.Background(), 0)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))

	_, err = client.TopCoins(context.Background(), 251)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}

func TestTopCoins_NoAPIKeyHeaderWhenUnset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := r.Header["X-Cg-Api-Key"]
		assert.False(t, ok)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.APIKey = ""
	_, err := NewClient(cfg, logger.NewNop()).TopCoins(context.Background(), 5)
	require.NoError(t, err)
}
