package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"coinpulse/pkg/errors"
)

// Limiter throttles calls to an upstream API
type Limiter struct {
	limiter *rate.Limiter
	name    string
}

// NewLimiter allows requestsPerMinute calls with a burst of 10% of that budget.
// requestsPerMinute <= 0 disables limiting.
func NewLimiter(name string, requestsPerMinute int) *Limiter {
	if requestsPerMinute <= 0 {
		return &Limiter{limiter: rate.NewLimiter(rate.Inf, 1), name: name}
	}

	burst := requestsPerMinute / 10
	if burst < 1 {
		burst = 1
	}

	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), burst),
		name:    name,
	}
}

// NewPacer allows one call per interval with no burst. Used to space out feed fetches.
func NewPacer(name string, interval time.Duration) *Limiter {
	if interval <= 0 {
		return &Limiter{limiter: rate.NewLimiter(rate.Inf, 1), name: name}
	}
	return &Limiter{limiter: rate.NewLimiter(rate.Every(interval), 1), name: name}
}

// Wait blocks until the limiter allows the request or ctx is done
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return errors.Wrapf(err, "rate limiter %s", l.name)
	}
	return nil
}

// Allow checks if a request is allowed without blocking
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}
