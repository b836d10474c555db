package retry

import (
	"context"
	"math"
	"net"
	"net/http"
	"strings"
	"time"

	"coinpulse/pkg/errors"
)

// Strategy defines the backoff strategy
type Strategy string

const (
	StrategyExponential Strategy = "exponential"
	StrategyLinear      Strategy = "linear"
	StrategyFixed       Strategy = "fixed"
)

// Config contains retry configuration
type Config struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Strategy     Strategy
	Multiplier   float64 // exponential only
}

// DefaultConfig returns the backoff used for market-data calls
func DefaultConfig() Config {
	return Config{
		MaxRetries:   2,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Strategy:     StrategyExponential,
		Multiplier:   2.0,
	}
}

// Middleware retries retryable failures with backoff
type Middleware struct {
	config Config
	sleep  func(ctx context.Context, d time.Duration) error
}

// New creates a retry middleware. MaxRetries < 0 is treated as zero retries.
func New(config Config) *Middleware {
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = 100 * time.Millisecond
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 5 * time.Second
	}
	if config.Multiplier <= 0 {
		config.Multiplier = 2.0
	}
	if config.Strategy == "" {
		config.Strategy = StrategyExponential
	}

	return &Middleware{config: config, sleep: sleepCtx}
}

// Do runs fn until it succeeds, returns a non-retryable error, or retries are exhausted
func (m *Middleware) Do(ctx context.Context, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt <= m.config.MaxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return err
		}
		if attempt == m.config.MaxRetries {
			break
		}

		if err := m.sleep(ctx, m.delay(attempt)); err != nil {
			return errors.Wrap(err, "retry cancelled")
		}
	}

	if m.config.MaxRetries == 0 {
		return lastErr
	}
	return errors.Wrapf(lastErr, "max retries (%d) exceeded", m.config.MaxRetries)
}

func (m *Middleware) delay(attempt int) time.Duration {
	var d time.Duration

	switch m.config.Strategy {
	case StrategyExponential:
		d = time.Duration(float64(m.config.InitialDelay) * math.Pow(m.config.Multiplier, float64(attempt)))
	case StrategyLinear:
		d = m.config.InitialDelay * time.Duration(1+attempt)
	default:
		d = m.config.InitialDelay
	}

	if d > m.config.MaxDelay {
		d = m.config.MaxDelay
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

var retryableMessages = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"no such host",
	"timeout",
	"temporary failure",
	"too many requests",
	"rate limit",
}

// IsRetryable reports whether err is a transient network or upstream failure
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var httpErr interface{ StatusCode() int }
	if errors.As(err, &httpErr) {
		code := httpErr.StatusCode()
		return code == http.StatusTooManyRequests ||
			code == http.StatusRequestTimeout ||
			code >= 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, errors.ErrRateLimitExceeded) || errors.Is(err, errors.ErrUnavailable) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, m := range retryableMessages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
