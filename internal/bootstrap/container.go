package bootstrap

import (
	"context"
	"sync"

	chclient "coinpulse/internal/adapters/clickhouse"
	"coinpulse/internal/adapters/config"
	"coinpulse/internal/adapters/kafka"
	pgclient "coinpulse/internal/adapters/postgres"
	redisclient "coinpulse/internal/adapters/redis"
	"coinpulse/internal/api"
	"coinpulse/internal/api/health"
	"coinpulse/internal/domain/coin"
	"coinpulse/internal/domain/news"
	"coinpulse/internal/domain/sentiment"
	"coinpulse/internal/events"
	chrepo "coinpulse/internal/repository/clickhouse"
	redisrepo "coinpulse/internal/repository/redis"
	coinsvc "coinpulse/internal/services/coins"
	dailysvc "coinpulse/internal/services/daily"
	"coinpulse/internal/workers"
	"coinpulse/pkg/errors"
	"coinpulse/pkg/logger"
)

// Container holds all application dependencies and their lifecycle
// Components are organized in initialization order
type Container struct {
	// Core configuration & logging
	Config       *config.Config
	Log          *logger.Logger
	ErrorTracker errors.Tracker

	// Infrastructure Layer (Data stores). CH and Kafka are nil when disabled.
	PG    *pgclient.Client
	CH    *chclient.Client
	Redis *redisclient.Client
	Kafka *kafka.Producer

	// Domain Layer - Repositories
	Repos *Repositories

	// Domain Layer - Services
	Services *Services

	// External Adapters
	Adapters *Adapters

	// Application Layer
	Application *Application

	// Background Processing
	Background *Background

	// Lifecycle management
	Lifecycle *Lifecycle
	WG        *sync.WaitGroup
	Context   context.Context
	Cancel    context.CancelFunc
}

// Repositories groups all domain repositories
type Repositories struct {
	Coins       coin.Repository
	Articles    news.Repository
	Sentiment   sentiment.Repository
	LatestCache *redisrepo.LatestCache
	RunLock     *redisrepo.RunLock
	Archive     *chrepo.ArticleArchive // nil when ClickHouse is disabled
}

// Adapters groups all external adapters
type Adapters struct {
	Market    coin.MarketSource
	Feeds     news.Source
	Scorer    sentiment.Scorer
	Publisher *events.Publisher // nil when Kafka is disabled
}

// Services groups all domain services
type Services struct {
	Daily *dailysvc.Service
	Coins *coinsvc.Service
}

// Application groups application layer components
type Application struct {
	HTTPServer    *api.Server
	HealthHandler *health.Handler
}

// Background groups all background processing components
type Background struct {
	WorkerScheduler *workers.Scheduler
}

// NewContainer creates a new dependency container
func NewContainer() *Container {
	ctx, cancel := context.WithCancel(context.Background())

	return &Container{
		Repos:       &Repositories{},
		Services:    &Services{},
		Adapters:    &Adapters{},
		Application: &Application{},
		Background:  &Background{},
		Lifecycle:   NewLifecycle(),
		WG:          &sync.WaitGroup{},
		Context:     ctx,
		Cancel:      cancel,
	}
}

// MustInit initializes everything the long-running service needs
// Panics on any initialization error (fail-fast at startup)
func (c *Container) MustInit() {
	c.MustInitJob()
	c.MustInitApplication()
	c.MustInitBackground()
}

// MustInitJob initializes only what a daily run needs: no HTTP server, no scheduler
func (c *Container) MustInitJob() {
	c.MustInitConfig()
	c.MustInitInfrastructure()
	c.MustInitRepositories()
	c.MustInitAdapters()
	c.MustInitServices()
}

// Start starts the HTTP server and the worker scheduler
func (c *Container) Start() error {
	c.Log.Info("Starting all systems...")

	c.WG.Add(1)
	go func() {
		defer c.WG.Done()
		if err := c.Application.HTTPServer.Start(); err != nil {
			c.Log.Errorf("HTTP server failed: %v", err)
			c.Cancel() // Trigger shutdown on fatal HTTP error
		}
	}()

	if err := c.Background.WorkerScheduler.Start(c.Context); err != nil {
		return errors.Wrap(err, "failed to start workers")
	}

	c.Log.Info("✓ All systems operational")
	return nil
}

// Shutdown performs graceful shutdown in the correct order
func (c *Container) Shutdown() {
	c.Log.Info("Initiating graceful shutdown...")

	c.Cancel()

	c.Lifecycle.Shutdown(
		c.WG,
		c.Application.HTTPServer,
		c.Background.WorkerScheduler,
		c.Kafka,
		c.PG,
		c.CH,
		c.Redis,
		c.ErrorTracker,
		c.Log,
	)
}
