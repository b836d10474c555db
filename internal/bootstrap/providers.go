package bootstrap

import (
	"context"
	"time"

	chclient "coinpulse/internal/adapters/clickhouse"
	"coinpulse/internal/adapters/coingecko"
	"coinpulse/internal/adapters/config"
	errnoop "coinpulse/internal/adapters/errors/noop"
	"coinpulse/internal/adapters/errors/sentry"
	"coinpulse/internal/adapters/feeds"
	"coinpulse/internal/adapters/kafka"
	pgclient "coinpulse/internal/adapters/postgres"
	redisclient "coinpulse/internal/adapters/redis"
	"coinpulse/internal/adapters/vader"
	"coinpulse/internal/api"
	"coinpulse/internal/api/health"
	"coinpulse/internal/domain/sentiment"
	"coinpulse/internal/events"
	"coinpulse/internal/metrics"
	chrepo "coinpulse/internal/repository/clickhouse"
	pgrepo "coinpulse/internal/repository/postgres"
	redisrepo "coinpulse/internal/repository/redis"
	coinsvc "coinpulse/internal/services/coins"
	dailysvc "coinpulse/internal/services/daily"
	"coinpulse/internal/workers"
	sentimentworkers "coinpulse/internal/workers/sentiment"
	"coinpulse/pkg/errors"
	"coinpulse/pkg/logger"
)

const connectTimeout = 30 * time.Second

// ========================================
// Phase 1: Configuration & Logging
// ========================================

// MustInitConfig loads configuration and initializes logger
func (c *Container) MustInitConfig() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	c.Config = cfg

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}

	c.Log = logger.Get()
	c.Log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	c.ErrorTracker = provideErrorTracker(cfg, c.Log)
	logger.SetErrorTracker(c.ErrorTracker)

	metrics.Init()
}

// ========================================
// Phase 2: Infrastructure Layer
// ========================================

// MustInitInfrastructure connects data stores. ClickHouse and Kafka only when enabled.
func (c *Container) MustInitInfrastructure() {
	ctx, cancel := context.WithTimeout(c.Context, connectTimeout)
	defer cancel()

	var err error

	c.Log.Info("Connecting to PostgreSQL...")
	c.PG, err = pgclient.NewClient(ctx, c.Config.Postgres)
	if err != nil {
		c.Log.Fatalf("failed to connect postgres: %v", err)
	}
	c.Log.Info("✓ PostgreSQL connected")

	if c.Config.Postgres.AutoMigrate {
		if err := pgclient.NewMigrator(c.PG, c.Log).Up(ctx); err != nil {
			c.Log.Fatalf("failed to apply migrations: %v", err)
		}
		c.Log.Info("✓ Migrations applied")
	}

	metrics.RegisterTableCollector(metrics.NewTableCollector(c.Log, c.PG.DB()))

	c.Log.Info("Connecting to Redis...")
	c.Redis, err = redisclient.NewClient(ctx, c.Config.Redis)
	if err != nil {
		c.Log.Fatalf("failed to connect redis: %v", err)
	}
	c.Log.Info("✓ Redis connected")

	if c.Config.ClickHouse.Enabled {
		c.Log.Info("Connecting to ClickHouse...")
		c.CH, err = chclient.NewClient(ctx, c.Config.ClickHouse)
		if err != nil {
			c.Log.Fatalf("failed to connect clickhouse: %v", err)
		}
		c.Log.Info("✓ ClickHouse connected")
	}

	if c.Config.Kafka.Enabled {
		c.Kafka = provideKafkaProducer(c.Config, c.Log)
	}
}

// ========================================
// Phase 3: Domain Layer - Repositories
// ========================================

// MustInitRepositories initializes all domain repositories
func (c *Container) MustInitRepositories() {
	c.Repos.Coins = pgrepo.NewCoinRepository(c.PG.DB())
	c.Repos.Articles = pgrepo.NewArticleRepository(c.PG.DB())
	c.Repos.Sentiment = pgrepo.NewSentimentRepository(c.PG.DB())
	c.Repos.LatestCache = redisrepo.NewLatestCache(c.Redis, c.Config.HTTP.CoinsCacheTTL)
	c.Repos.RunLock = redisrepo.NewRunLock(c.Redis, c.Config.Job.LockTTL)

	if c.CH != nil {
		c.Repos.Archive = chrepo.NewArticleArchive(c.CH, chrepo.DefaultArchiveTable)
		ctx, cancel := context.WithTimeout(c.Context, connectTimeout)
		defer cancel()
		if err := c.Repos.Archive.EnsureSchema(ctx); err != nil {
			c.Log.Fatalf("failed to prepare clickhouse archive: %v", err)
		}
	}

	c.Log.Info("✓ Repositories initialized")
}

// ========================================
// Phase 4: External Adapters
// ========================================

// MustInitAdapters initializes market data, feeds, the scorer and the event publisher
func (c *Container) MustInitAdapters() {
	c.Adapters.Market = coingecko.NewClient(c.Config.MarketData, c.Log)
	c.Adapters.Feeds = feeds.NewCollector(c.Config.Feeds, c.Log)
	c.Adapters.Scorer = vader.NewScorer()

	if c.Kafka != nil {
		c.Adapters.Publisher = events.NewPublisher(c.Kafka, c.Log)
	}

	c.Log.Infow("✓ Adapters initialized",
		"feeds", len(c.Config.Feeds.URLs),
		"top_coins", c.Config.MarketData.TopCoins,
		"events", c.Adapters.Publisher != nil,
	)
}

// ========================================
// Phase 5: Services
// ========================================

// MustInitServices initializes the daily update and read services
func (c *Container) MustInitServices() {
	deps := dailysvc.Deps{
		Market:     c.Adapters.Market,
		Coins:      c.Repos.Coins,
		Feeds:      c.Adapters.Feeds,
		Articles:   c.Repos.Articles,
		Sentiment:  c.Repos.Sentiment,
		Aggregator: sentiment.NewAggregator(c.Adapters.Scorer, c.Config.Sentiment.Workers, c.Log),
		Lock:       c.Repos.RunLock,
		Cache:      c.Repos.LatestCache,
		Tracker:    c.ErrorTracker,
	}
	// typed nils would defeat the optional checks in the service
	if c.Repos.Archive != nil {
		deps.Archive = c.Repos.Archive
	}
	if c.Adapters.Publisher != nil {
		deps.Publisher = c.Adapters.Publisher
	}

	c.Services.Daily = dailysvc.NewService(deps, c.Config.MarketData.TopCoins, c.Log)
	c.Services.Coins = coinsvc.NewService(
		c.Repos.Coins,
		c.Repos.Sentiment,
		c.Repos.Articles,
		c.Repos.LatestCache,
		c.Log,
	)

	c.Log.Info("✓ Services initialized")
}

// ========================================
// Phase 6: Application Layer
// ========================================

// MustInitApplication initializes the health handler and HTTP server
func (c *Container) MustInitApplication() {
	c.Application.HealthHandler = provideHealthHandler(c)
	c.Application.HTTPServer = api.NewServer(api.ServerConfig{
		Port:         c.Config.HTTP.Port,
		ServiceName:  c.Config.App.Name,
		Version:      c.Config.App.Version,
		ReadTimeout:  c.Config.HTTP.ReadTimeout,
		WriteTimeout: c.Config.HTTP.WriteTimeout,
	}, c.Application.HealthHandler, c.Services.Coins, c.Log)
}

// ========================================
// Phase 7: Background Processing
// ========================================

// MustInitBackground initializes the worker scheduler
func (c *Container) MustInitBackground() {
	c.Background.WorkerScheduler = provideWorkers(c.Config, c.Services.Daily, c.Log)
	c.Log.Info("✓ Background processing initialized")
}

// ========================================
// Helper Provider Functions
// ========================================

func provideErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return errnoop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment, cfg.App.Version)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return errnoop.New()
	}

	log.Info("✓ Error tracking initialized (Sentry)")
	return tracker
}

func provideKafkaProducer(cfg *config.Config, log *logger.Logger) *kafka.Producer {
	log.Infow("Initializing Kafka producer...", "brokers", cfg.Kafka.Brokers)

	producer := kafka.NewProducer(kafka.ProducerConfig{
		Brokers: cfg.Kafka.Brokers,
	})
	log.Info("✓ Kafka producer initialized")
	return producer
}

func provideHealthHandler(c *Container) *health.Handler {
	components := []health.Component{
		{Name: "postgres", Checker: c.PG},
		{Name: "redis", Checker: c.Redis},
	}
	if c.CH != nil {
		components = append(components, health.Component{Name: "clickhouse", Checker: c.CH, Optional: true})
	}
	return health.New(c.Log, c.Config.App.Name, c.Config.App.Version, components...)
}

func provideWorkers(cfg *config.Config, daily *dailysvc.Service, log *logger.Logger) *workers.Scheduler {
	scheduler := workers.NewScheduler()

	scheduler.RegisterWorker(sentimentworkers.NewDailyUpdateWorker(
		daily,
		cfg.Job.Interval,
		cfg.Job.Timeout,
		cfg.Job.Enabled,
		cfg.Job.RunOnStart,
	))

	log.Infow("✓ Workers registered", "daily_interval", cfg.Job.Interval, "daily_enabled", cfg.Job.Enabled)
	return scheduler
}
