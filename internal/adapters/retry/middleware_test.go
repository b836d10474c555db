package retry

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coinpulse/pkg/errors"
)

func noSleep(m *Middleware) *Middleware {
	m.sleep = func(ctx context.Context, d time.Duration) error { return ctx.Err() }
	return m
}

func TestDo_RetriesServerErrors(t *testing.T) {
	m := noSleep(New(Config{MaxRetries: 2}))

	calls := 0
	err := m.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return &errors.HTTPStatusError{Code: http.StatusBadGateway}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_StopsOnClientError(t *testing.T) {
	m := noSleep(New(Config{MaxRetries: 5}))

	calls := 0
	err := m.Do(context.Background(), func() error {
		calls++
		return &errors.HTTPStatusError{Code: http.StatusUnauthorized}
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ExhaustsRetries(t *testing.T) {
	m := noSleep(New(Config{MaxRetries: 2}))

	calls := 0
	err := m.Do(context.Background(), func() error {
		calls++
		return &errors.HTTPStatusError{Code: http.StatusTooManyRequests}
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "max retries (2) exceeded")

	var httpErr *errors.HTTPStatusError
	assert.True(t, errors.As(err, &httpErr))
}

func TestDo_ZeroRetries(t *testing.T) {
	m := noSleep(New(Config{MaxRetries: 0}))

	calls := 0
	_ = m.Do(context.Background(), func() error {
		calls++
		return errors.ErrUnavailable
	})
	assert.Equal(t, 1, calls)
}

func TestDo_CancelledContext(t *testing.T) {
	m := noSleep(New(Config{MaxRetries: 3}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.Do(ctx, func() error { return errors.ErrUnavailable })
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestDelay(t *testing.T) {
	m := New(Config{InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2})

	assert.Equal(t, 100*time.Millisecond, m.delay(0))
	assert.Equal(t, 400*time.Millisecond, m.delay(2))
	assert.Equal(t, time.Second, m.delay(10))

	lin := New(Config{InitialDelay: 100 * time.Millisecond, Strategy: StrategyLinear})
	assert.Equal(t, 300*time.Millisecond, lin.delay(2))
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(context.DeadlineExceeded))
	assert.True(t, IsRetryable(errors.New("dial tcp: connection refused")))
	assert.True(t, IsRetryable(errors.Wrap(errors.ErrRateLimitExceeded, "coingecko")))
	assert.False(t, IsRetryable(errors.New("invalid character in json")))
	assert.False(t, IsRetryable(&errors.HTTPStatusError{Code: http.StatusNotFound}))
}
