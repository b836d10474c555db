package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"coinpulse/pkg/errors"
)

type Config struct {
	App           AppConfig
	HTTP          HTTPConfig
	Postgres      PostgresConfig
	Redis         RedisConfig
	ClickHouse    ClickHouseConfig
	Kafka         KafkaConfig
	MarketData    MarketDataConfig
	Feeds         FeedsConfig
	Sentiment     SentimentConfig
	Job           JobConfig
	ErrorTracking ErrorTrackingConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"coinpulse"`
	Version  string `envconfig:"APP_VERSION" default:"1.0.0"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

type HTTPConfig struct {
	Port          int           `envconfig:"HTTP_PORT" default:"8000"`
	ReadTimeout   time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"10s"`
	WriteTimeout  time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"15s"`
	CoinsCacheTTL time.Duration `envconfig:"HTTP_COINS_CACHE_TTL" default:"10m"`
}

type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" required:"true"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" required:"true"`
	Password string `envconfig:"POSTGRES_PASSWORD" required:"true"`
	Database string `envconfig:"POSTGRES_DB" required:"true"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"10"`

	AutoMigrate bool `envconfig:"POSTGRES_AUTO_MIGRATE" default:"true"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" required:"true"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ClickHouseConfig configures the optional scored-article archive
type ClickHouseConfig struct {
	Enabled  bool   `envconfig:"CLICKHOUSE_ENABLED" default:"false"`
	Host     string `envconfig:"CLICKHOUSE_HOST" default:"localhost"`
	Port     int    `envconfig:"CLICKHOUSE_PORT" default:"9000"`
	User     string `envconfig:"CLICKHOUSE_USER" default:"default"`
	Password string `envconfig:"CLICKHOUSE_PASSWORD"`
	Database string `envconfig:"CLICKHOUSE_DB" default:"coinpulse"`
}

// KafkaConfig configures the optional run-completed event stream
type KafkaConfig struct {
	Enabled bool     `envconfig:"KAFKA_ENABLED" default:"false"`
	Brokers []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
}

type MarketDataConfig struct {
	BaseURL           string        `envconfig:"COINGECKO_BASE_URL" default:"https://api.coingecko.com/api/v3"`
	APIKey            string        `envconfig:"COINGECKO_API_KEY"`
	TopCoins          int           `envconfig:"COINGECKO_TOP_COINS" default:"100"`
	RequestsPerMinute int           `envconfig:"COINGECKO_REQUESTS_PER_MINUTE" default:"30"`
	Timeout           time.Duration `envconfig:"COINGECKO_TIMEOUT" default:"30s"`
	MaxRetries        int           `envconfig:"COINGECKO_MAX_RETRIES" default:"2"`
}

// FeedsConfig lists the news feeds. URLs falls back to DefaultFeedURLs when empty.
type FeedsConfig struct {
	URLs      []string      `envconfig:"FEED_URLS"`
	Window    time.Duration `envconfig:"FEED_WINDOW" default:"168h"`
	Pace      time.Duration `envconfig:"FEED_PACE" default:"1s"`
	Timeout   time.Duration `envconfig:"FEED_TIMEOUT" default:"20s"`
	UserAgent string        `envconfig:"FEED_USER_AGENT" default:"coinpulse/1.0 (+news sentiment tracker)"`
}

type SentimentConfig struct {
	Workers int `envconfig:"SENTIMENT_WORKERS" default:"4"`
}

// JobConfig controls the daily update worker
type JobConfig struct {
	Enabled    bool          `envconfig:"JOB_ENABLED" default:"true"`
	RunOnStart bool          `envconfig:"JOB_RUN_ON_START" default:"false"`
	Interval   time.Duration `envconfig:"JOB_INTERVAL" default:"24h"`
	Timeout    time.Duration `envconfig:"JOB_TIMEOUT" default:"30m"`
	LockTTL    time.Duration `envconfig:"JOB_LOCK_TTL" default:"45m"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"false"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// DefaultFeedURLs is the built-in crypto news feed list
var DefaultFeedURLs = []string{
	"https://www.coindesk.com/arc/outboundfeeds/rss/",
	"https://cointelegraph.com/rss",
	"https://decrypt.co/feed",
	"https://www.newsbtc.com/feed/",
	"https://bitcoinmagazine.com/.rss/full/",
	"https://cryptoslate.com/feed/",
	"https://www.cryptonews.com/news/feed/",
	"https://blockchain.news/feed",
	"https://www.ccn.com/news/crypto-news/feeds/",
	"https://www.ccn.com/analysis/crypto-analysis/feeds/",
	"https://coinjournal.net/feeds/",
	"https://thedefiant.io/feed/",
	"https://cryptopotato.com/feed/",
	"https://livebitcoinnews.com/feed/",
	"https://cryptoninjas.net/feed/",
	"https://ambcrypto.com/feed/",
	"https://u.today/rss",
	"https://www.investing.com/rss/news_25.rss",
	"https://bitcoinist.com/feed/",
	"https://cryptobriefing.com/feed/",
	"https://beincrypto.com/feed/",
	"https://cryptonewsflash.com/feed/",
	"https://finbold.com/feed/",
	"https://blockonomi.com/feed/",
}

// Load reads configuration from environment variables.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	if len(cfg.Feeds.URLs) == 0 {
		cfg.Feeds.URLs = append([]string(nil), DefaultFeedURLs...)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects values envconfig accepts but the application cannot run with
func (c *Config) Validate() error {
	if c.MarketData.TopCoins <= 0 || c.MarketData.TopCoins > 250 {
		return errors.Wrapf(errors.ErrInvalidInput, "COINGECKO_TOP_COINS must be in 1..250, got %d", c.MarketData.TopCoins)
	}
	if c.Feeds.Window <= 0 {
		return errors.Wrapf(errors.ErrInvalidInput, "FEED_WINDOW must be positive, got %s", c.Feeds.Window)
	}
	if c.Job.Interval <= 0 {
		return errors.Wrapf(errors.ErrInvalidInput, "JOB_INTERVAL must be positive, got %s", c.Job.Interval)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.Wrap(errors.ErrInvalidInput, "KAFKA_BROKERS required when KAFKA_ENABLED=true")
	}
	return nil
}
