package bootstrap

import (
	"context"
	"sync"
	"time"

	chclient "coinpulse/internal/adapters/clickhouse"
	"coinpulse/internal/adapters/kafka"
	pgclient "coinpulse/internal/adapters/postgres"
	redisclient "coinpulse/internal/adapters/redis"
	"coinpulse/internal/api"
	"coinpulse/internal/workers"
	"coinpulse/pkg/errors"
	"coinpulse/pkg/logger"
)

// Lifecycle manages graceful shutdown of components
type Lifecycle struct {
	shutdownTimeout time.Duration
}

// NewLifecycle creates a new lifecycle manager
func NewLifecycle() *Lifecycle {
	return &Lifecycle{
		shutdownTimeout: 150 * time.Second,
	}
}

// Shutdown performs coordinated cleanup of all components in order:
// stop accepting requests, let workers finish, close the producer,
// flush errors and logs, and close databases last.
// Any argument may be nil.
func (l *Lifecycle) Shutdown(
	wg *sync.WaitGroup,
	httpServer *api.Server,
	workerScheduler *workers.Scheduler,
	kafkaProducer *kafka.Producer,
	pgClient *pgclient.Client,
	chClient *chclient.Client,
	redisClient *redisclient.Client,
	errorTracker errors.Tracker,
	log *logger.Logger,
) {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), l.shutdownTimeout)
	defer shutdownCancel()

	// ========================================
	// Step 1: Stop HTTP Server (5s timeout)
	// ========================================
	log.Info("[1/7] Stopping HTTP server...")
	if httpServer != nil {
		httpCtx, httpCancel := context.WithTimeout(shutdownCtx, 5*time.Second)
		if err := httpServer.Shutdown(httpCtx); err != nil {
			log.Errorw("HTTP server shutdown failed", "error", err)
		}
		httpCancel()
	}

	// ========================================
	// Step 2: Stop Background Workers
	// ========================================
	log.Info("[2/7] Stopping background workers...")
	if workerScheduler != nil && workerScheduler.IsRunning() {
		if err := workerScheduler.Stop(); err != nil {
			log.Errorw("Workers shutdown failed", "error", err)
		} else {
			log.Info("✓ Workers stopped")
		}
	}

	// ========================================
	// Step 3: Wait for server goroutines
	// ========================================
	log.Info("[3/7] Waiting for goroutines...")
	if wg != nil {
		l.waitForGoroutines(wg, 5*time.Second, log)
	}

	// ========================================
	// Step 4: Close Kafka Producer
	// ========================================
	log.Info("[4/7] Closing Kafka producer...")
	if kafkaProducer != nil {
		if err := kafkaProducer.Close(); err != nil {
			log.Errorw("Kafka producer close failed", "error", err)
		} else {
			log.Info("✓ Kafka producer closed")
		}
	}

	// ========================================
	// Step 5: Flush Error Tracker
	// ========================================
	log.Info("[5/7] Flushing error tracker...")
	l.flushErrorTracker(shutdownCtx, errorTracker, log)

	// ========================================
	// Step 6: Close Database Connections
	// LAST - other components may need them during shutdown
	// ========================================
	log.Info("[6/7] Closing database connections...")
	l.closeDatabases(pgClient, chClient, redisClient, log)

	// ========================================
	// Step 7: Sync Logs
	// ========================================
	log.Info("[7/7] ✅ Graceful shutdown complete")
	_ = logger.Sync()
}

// waitForGoroutines waits for all goroutines with a timeout
func (l *Lifecycle) waitForGoroutines(wg *sync.WaitGroup, timeout time.Duration, log *logger.Logger) {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info("✓ All goroutines finished")
	case <-time.After(timeout):
		log.Warnw("⚠ Some goroutines did not finish within timeout", "timeout", timeout)
	}
}

// flushErrorTracker flushes the error tracker (Sentry, etc.)
func (l *Lifecycle) flushErrorTracker(ctx context.Context, tracker errors.Tracker, log *logger.Logger) {
	if tracker == nil {
		return
	}

	flushCtx, flushCancel := context.WithTimeout(ctx, 3*time.Second)
	defer flushCancel()

	if err := tracker.Flush(flushCtx); err != nil {
		log.Warnw("Error tracker flush failed", "error", err)
	} else {
		log.Info("✓ Error tracker flushed")
	}
}

// closeDatabases closes all database connections
func (l *Lifecycle) closeDatabases(
	pgClient *pgclient.Client,
	chClient *chclient.Client,
	redisClient *redisclient.Client,
	log *logger.Logger,
) {
	var dbErrors errors.MultiError

	if pgClient != nil {
		if err := pgClient.Close(); err != nil {
			dbErrors.Add(errors.Wrap(err, "postgres"))
		}
	}

	if chClient != nil {
		if err := chClient.Close(); err != nil {
			dbErrors.Add(errors.Wrap(err, "clickhouse"))
		}
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			dbErrors.Add(errors.Wrap(err, "redis"))
		}
	}

	if err := dbErrors.ToError(); err != nil {
		log.Errorw("Database close errors", "error", err)
	} else {
		log.Info("✓ Database connections closed")
	}
}
