package sentiment

import (
	"context"
	"time"

	"coinpulse/internal/services/daily"
	"coinpulse/internal/workers"
	"coinpulse/pkg/errors"
)

// DailyRunner executes one daily update
type DailyRunner interface {
	Run(ctx context.Context) (*daily.Report, error)
}

// DailyUpdateWorker runs the daily price, feed and sentiment update on a schedule
type DailyUpdateWorker struct {
	*workers.BaseWorker
	runner  DailyRunner
	timeout time.Duration
}

// NewDailyUpdateWorker creates the worker. A zero timeout leaves runs unbounded.
func NewDailyUpdateWorker(
	runner DailyRunner,
	interval time.Duration,
	timeout time.Duration,
	enabled bool,
	runOnStart bool,
) *DailyUpdateWorker {
	return &DailyUpdateWorker{
		BaseWorker: workers.NewBaseWorker("daily_sentiment_update", interval, enabled, runOnStart),
		runner:     runner,
		timeout:    timeout,
	}
}

// Run executes one iteration. A run skipped because another process holds the lock is not an error.
func (w *DailyUpdateWorker) Run(ctx context.Context) error {
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	report, err := w.runner.Run(ctx)
	if errors.Is(err, errors.ErrLockNotAcquired) {
		w.Log().Infow("Daily update skipped, lock held by another instance")
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "daily update")
	}

	w.Log().Infow("Daily update finished",
		"run_id", report.RunID,
		"outcome", report.Outcome(),
		"coins_updated", report.CoinsUpdated,
		"failures", len(report.Failures),
	)
	return nil
}
