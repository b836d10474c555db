package sentry

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"

	"coinpulse/pkg/errors"
)

type ctxKey string

// RunIDKey is the context key under which the daily run id is stored
const RunIDKey ctxKey = "run_id"

// Tracker implements error tracking via Sentry
type Tracker struct {
	hub *sentry.Hub
}

var _ errors.Tracker = (*Tracker)(nil)

// New initializes the Sentry SDK and returns a tracker bound to its hub
func New(dsn, environment, release string) (*Tracker, error) {
	err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
		Release:     release,
	})
	if err != nil {
		return nil, errors.Wrap(err, "init sentry")
	}

	return &Tracker{hub: sentry.CurrentHub()}, nil
}

// CaptureError sends an error to Sentry, tagging it with the run id when present
func (t *Tracker) CaptureError(ctx context.Context, err error, tags map[string]string) error {
	hub := t.hub.Clone()

	hub.ConfigureScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		if runID, ok := ctx.Value(RunIDKey).(string); ok {
			scope.SetTag("run_id", runID)
		}
	})

	hub.CaptureException(err)
	return nil
}

func (t *Tracker) CaptureMessage(ctx context.Context, message string, level errors.Level, tags map[string]string) error {
	hub := t.hub.Clone()

	hub.ConfigureScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		scope.SetLevel(convertLevel(level))
	})

	hub.CaptureMessage(message)
	return nil
}

// AddBreadcrumb records a step of the daily run
func (t *Tracker) AddBreadcrumb(ctx context.Context, message string, category string, level errors.Level, data map[string]interface{}) {
	t.hub.AddBreadcrumb(&sentry.Breadcrumb{
		Message:  message,
		Category: category,
		Level:    convertLevel(level),
		Data:     data,
	}, &sentry.BreadcrumbHint{})
}

// Flush waits up to two seconds for pending events
func (t *Tracker) Flush(ctx context.Context) error {
	if !sentry.Flush(2 * time.Second) {
		return errors.Wrap(errors.ErrTimeout, "sentry flush")
	}
	return nil
}

func convertLevel(level errors.Level) sentry.Level {
	switch level {
	case errors.LevelDebug:
		return sentry.LevelDebug
	case errors.LevelInfo:
		return sentry.LevelInfo
	case errors.LevelWarning:
		return sentry.LevelWarning
	case errors.LevelError:
		return sentry.LevelError
	case errors.LevelFatal:
		return sentry.LevelFatal
	default:
		return sentry.LevelInfo
	}
}
