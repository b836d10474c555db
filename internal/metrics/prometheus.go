package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Worker metrics
	WorkerExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coinpulse_worker_executions_total",
			Help: "Total number of worker executions",
		},
		[]string{"worker", "status"}, // status: success|error
	)

	WorkerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coinpulse_worker_duration_seconds",
			Help:    "Worker execution duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		},
		[]string{"worker"},
	)

	WorkerLastRun = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "coinpulse_worker_last_run_timestamp",
			Help: "Unix timestamp of last worker execution",
		},
		[]string{"worker"},
	)

	// Daily run metrics
	DailyRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coinpulse_daily_runs_total",
			Help: "Total number of daily sentiment runs",
		},
		[]string{"status"}, // status: success|failed|skipped
	)

	DailyRunItemFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coinpulse_daily_run_item_failures_total",
			Help: "Per-item failures recorded by daily runs",
		},
		[]string{"stage"},
	)

	ArticlesProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coinpulse_articles_processed_total",
			Help: "Articles seen by the aggregator",
		},
		[]string{"outcome"}, // outcome: scored|unmentioned|failed
	)

	CoinsMentioned = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "coinpulse_coins_mentioned",
			Help: "Coins with at least one mention in the last run",
		},
	)

	// Upstream metrics
	ExternalAPICalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coinpulse_external_api_calls_total",
			Help: "Total number of external API calls",
		},
		[]string{"provider", "endpoint", "status"},
	)

	ExternalAPILatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coinpulse_external_api_latency_seconds",
			Help:    "External API latency in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"provider", "endpoint"},
	)

	FeedFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coinpulse_feed_fetches_total",
			Help: "Feed fetch attempts by host",
		},
		[]string{"host", "status"},
	)

	// HTTP API metrics
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coinpulse_http_requests_total",
			Help: "HTTP requests served",
		},
		[]string{"route", "code"},
	)

	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coinpulse_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coinpulse_cache_lookups_total",
			Help: "Latest-table cache lookups",
		},
		[]string{"result"}, // result: hit|miss|error
	)

	// Database metrics
	DBQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coinpulse_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"database", "operation", "status"},
	)

	DBQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coinpulse_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"database", "operation"},
	)

	KafkaMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coinpulse_kafka_messages_total",
			Help: "Kafka messages published",
		},
		[]string{"topic", "status"},
	)
)

var initOnce sync.Once

// Init registers all metrics with Prometheus. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			WorkerExecutions,
			WorkerDuration,
			WorkerLastRun,
			DailyRuns,
			DailyRunItemFailures,
			ArticlesProcessed,
			CoinsMentioned,
			ExternalAPICalls,
			ExternalAPILatency,
			FeedFetches,
			HTTPRequests,
			HTTPLatency,
			CacheLookups,
			DBQueries,
			DBQueryDuration,
			KafkaMessages,
		)
	})
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordWorkerExecution records a worker execution
func RecordWorkerExecution(worker string, duration time.Duration, err error) {
	WorkerExecutions.WithLabelValues(worker, status(err)).Inc()
	WorkerDuration.WithLabelValues(worker).Observe(duration.Seconds())
	WorkerLastRun.WithLabelValues(worker).SetToCurrentTime()
}

// RecordDailyRun records the outcome of one daily run
func RecordDailyRun(outcome string, scored, unmentioned, failed, mentionedCoins int) {
	DailyRuns.WithLabelValues(outcome).Inc()
	ArticlesProcessed.WithLabelValues("scored").Add(float64(scored))
	ArticlesProcessed.WithLabelValues("unmentioned").Add(float64(unmentioned))
	ArticlesProcessed.WithLabelValues("failed").Add(float64(failed))
	CoinsMentioned.Set(float64(mentionedCoins))
}

// RecordItemFailure counts one skipped unit of work in a daily run
func RecordItemFailure(stage string) {
	DailyRunItemFailures.WithLabelValues(stage).Inc()
}

// RecordExternalAPICall records a call to an upstream API
func RecordExternalAPICall(provider, endpoint string, latency time.Duration, err error) {
	ExternalAPICalls.WithLabelValues(provider, endpoint, status(err)).Inc()
	ExternalAPILatency.WithLabelValues(provider, endpoint).Observe(latency.Seconds())
}

// RecordFeedFetch records one feed fetch
func RecordFeedFetch(host string, err error) {
	FeedFetches.WithLabelValues(host, status(err)).Inc()
}

// RecordHTTPRequest records a served API request
func RecordHTTPRequest(route string, code int, duration time.Duration) {
	HTTPRequests.WithLabelValues(route, httpCode(code)).Inc()
	HTTPLatency.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordCacheLookup records a cache hit, miss or error
func RecordCacheLookup(result string) {
	CacheLookups.WithLabelValues(result).Inc()
}

// RecordDBQuery records a database query
func RecordDBQuery(database, operation string, duration time.Duration, err error) {
	DBQueries.WithLabelValues(database, operation, status(err)).Inc()
	DBQueryDuration.WithLabelValues(database, operation).Observe(duration.Seconds())
}

// RecordKafkaMessage records a published event
func RecordKafkaMessage(topic string, err error) {
	KafkaMessages.WithLabelValues(topic, status(err)).Inc()
}

func httpCode(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
