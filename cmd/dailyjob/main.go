// Command dailyjob runs a single daily sentiment update and exits.
// The exit code is non-zero when the run failed.
package main

import (
	"context"
	"os"

	"coinpulse/internal/bootstrap"
	"coinpulse/pkg/errors"
)

func main() {
	os.Exit(run())
}

func run() int {
	container := bootstrap.NewContainer()
	container.MustInitJob()
	defer container.Shutdown()

	ctx, cancel := context.WithTimeout(container.Context, container.Config.Job.Timeout)
	defer cancel()

	report, err := container.Services.Daily.Run(ctx)
	if errors.Is(err, errors.ErrLockNotAcquired) {
		container.Log.Warn("Another daily run holds the lock, nothing to do")
		return 0
	}
	if err != nil {
		container.Log.Errorw("Daily run failed", "error", err)
		return 1
	}

	container.Log.Infow("Daily run finished",
		"run_id", report.RunID,
		"outcome", report.Outcome(),
		"coins_updated", report.CoinsUpdated,
		"articles_scored", report.ArticlesScored,
		"failures", len(report.Failures),
	)
	return 0
}
