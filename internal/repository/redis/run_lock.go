package redis

import (
	"context"
	"time"

	"github.com/google/uuid"

	adapterredis "coinpulse/internal/adapters/redis"
	"coinpulse/pkg/errors"
)

const runLockKey = "coinpulse:daily_run"

// RunLock makes sure only one process runs the daily update at a time
type RunLock struct {
	client *adapterredis.Client
	ttl    time.Duration
}

// NewRunLock creates a lock that expires after ttl if never released
func NewRunLock(client *adapterredis.Client, ttl time.Duration) *RunLock {
	return &RunLock{client: client, ttl: ttl}
}

// Acquire takes the lock and returns a release func.
// Returns ErrLockNotAcquired when another holder owns it.
func (l *RunLock) Acquire(ctx context.Context) (func(context.Context) error, error) {
	token := uuid.NewString()

	ok, err := l.client.AcquireLock(ctx, runLockKey, token, l.ttl)
	if err != nil {
		return nil, errors.Wrap(err, "acquire run lock")
	}
	if !ok {
		return nil, errors.ErrLockNotAcquired
	}

	release := func(ctx context.Context) error {
		released, err := l.client.ReleaseLock(ctx, runLockKey, token)
		if err != nil {
			return errors.Wrap(err, "release run lock")
		}
		if !released {
			return errors.Wrap(errors.ErrLockNotAcquired, "run lock expired before release")
		}
		return nil
	}
	return release, nil
}
