package metrics

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"

	"coinpulse/pkg/logger"
)

// TableCollector exports row counts of the main tables at scrape time
type TableCollector struct {
	log      *logger.Logger
	postgres *sqlx.DB

	trackedCoins    *prometheus.Desc
	storedArticles  *prometheus.Desc
	latestScoreDate *prometheus.Desc
}

func NewTableCollector(log *logger.Logger, postgres *sqlx.DB) *TableCollector {
	return &TableCollector{
		log:      log,
		postgres: postgres,

		trackedCoins: prometheus.NewDesc(
			"coinpulse_tracked_coins",
			"Number of coins in the roster",
			nil, nil,
		),
		storedArticles: prometheus.NewDesc(
			"coinpulse_stored_articles",
			"Number of stored articles",
			nil, nil,
		),
		latestScoreDate: prometheus.NewDesc(
			"coinpulse_latest_sentiment_date_timestamp",
			"Unix timestamp of the newest daily sentiment row",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector
func (c *TableCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.trackedCoins
	ch <- c.storedArticles
	ch <- c.latestScoreDate
}

// Collect implements prometheus.Collector
func (c *TableCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c.collectCount(ctx, ch, c.trackedCoins, "SELECT COUNT(*) FROM coins")
	c.collectCount(ctx, ch, c.storedArticles, "SELECT COUNT(*) FROM articles")

	var latest *time.Time
	if err := c.postgres.GetContext(ctx, &latest, "SELECT MAX(date) FROM coin_sentiment"); err != nil {
		c.log.Warnw("Failed to collect latest sentiment date", "error", err)
		return
	}
	if latest != nil {
		ch <- prometheus.MustNewConstMetric(c.latestScoreDate, prometheus.GaugeValue, float64(latest.Unix()))
	}
}

func (c *TableCollector) collectCount(ctx context.Context, ch chan<- prometheus.Metric, desc *prometheus.Desc, query string) {
	var count int64
	if err := c.postgres.GetContext(ctx, &count, query); err != nil {
		c.log.Warnw("Failed to collect table count", "query", query, "error", err)
		return
	}
	ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, float64(count))
}

// RegisterTableCollector registers the collector with the default registry
func RegisterTableCollector(collector *TableCollector) {
	prometheus.MustRegister(collector)
}
