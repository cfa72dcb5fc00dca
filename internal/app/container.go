package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/homebase/internal/agenda/application/commands"
	"github.com/felixgeelhaar/homebase/internal/agenda/application/queries"
	"github.com/felixgeelhaar/homebase/internal/agenda/application/services"
	"github.com/felixgeelhaar/homebase/internal/agenda/application/subscribers"
	"github.com/felixgeelhaar/homebase/internal/agenda/domain"
	"github.com/felixgeelhaar/homebase/internal/agenda/infrastructure/cache"
	"github.com/felixgeelhaar/homebase/internal/agenda/infrastructure/caldav"
	sharedApplication "github.com/felixgeelhaar/homebase/internal/shared/application"
	"github.com/felixgeelhaar/homebase/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/homebase/internal/shared/infrastructure/database/postgres" // Register PostgreSQL driver
	_ "github.com/felixgeelhaar/homebase/internal/shared/infrastructure/database/sqlite"   // Register SQLite driver
	"github.com/felixgeelhaar/homebase/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/homebase/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/homebase/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/homebase/pkg/config"
	"github.com/felixgeelhaar/homebase/pkg/observability"
	"github.com/redis/go-redis/v9"
)

// Container holds all application dependencies.
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *observability.InMemoryMetrics
	Clock   domain.Clock

	// Database
	DBConn   database.Connection
	DBDriver database.Driver

	// Redis
	RedisClient *redis.Client

	// Repositories
	EventRepo  domain.EventRepository
	ItemRepo   domain.ItemRepository
	OutboxRepo outbox.Repository

	// Unit of Work
	UnitOfWork sharedApplication.UnitOfWork

	// Read side
	EventSources []domain.EventSource
	SourceLoader *services.SourceLoader
	Refresh      services.RefreshTrigger
	AgendaCache  queries.AgendaCache

	// Publishers
	EventPublisher    eventbus.Publisher
	LocalBus          *eventbus.LocalBus
	RefreshSubscriber *subscribers.RefreshSubscriber

	// Outbox Processor
	OutboxProcessor *outbox.Processor

	// Health
	Health *observability.HealthRegistry

	// Command Handlers
	ScheduleItemHandler   *commands.ScheduleItemHandler
	QuickScheduleHandler  *commands.QuickScheduleHandler
	DeferItemHandler      *commands.DeferItemHandler
	UnscheduleItemHandler *commands.UnscheduleItemHandler
	CreateItemHandler     *commands.CreateItemHandler
	CreateEventHandler    *commands.CreateEventHandler

	// Query Handlers
	GetDayAgendaHandler  *queries.GetDayAgendaHandler
	GetWeekAgendaHandler *queries.GetWeekAgendaHandler
	GetSidebarHandler    *queries.GetSidebarHandler
}

// NewContainer creates and wires all dependencies. Without DATABASE_URL it runs
// against the local SQLite file; Redis, RabbitMQ and CalDAV are optional.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}

	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewInMemoryMetrics(),
		Clock:   domain.SystemClock{Location: loc},
		Health:  observability.NewHealthRegistry(),
	}

	if err := c.initDatabase(ctx); err != nil {
		return nil, err
	}
	if err := c.initRepositories(); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.initRedis(ctx); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.initPublisher(); err != nil {
		c.Close()
		return nil, err
	}

	if cfg.HasCalDAV() {
		source := caldav.NewEventSource(cfg.CalDAVURL, cfg.CalDAVUsername, cfg.CalDAVPassword, logger).
			WithCalendarPath(cfg.CalDAVCalendarPath).
			WithLocation(loc)
		c.EventSources = append(c.EventSources, source)
		logger.Info("caldav event source enabled", "url", cfg.CalDAVURL)
	}

	c.initHandlers()

	c.OutboxProcessor = outbox.NewProcessor(c.OutboxRepo, c.EventPublisher, outbox.ProcessorConfig{
		PollInterval: cfg.OutboxPollInterval,
		BatchSize:    cfg.OutboxBatchSize,
		MaxRetries:   cfg.OutboxMaxRetries,
		Retention:    cfg.OutboxRetention,
	}, logger).WithMetrics(c.Metrics)

	logger.Info("container ready",
		"driver", c.DBDriver,
		"redis", c.RedisClient != nil,
		"rabbitmq", cfg.HasRabbitMQ(),
		"event_sources", len(c.EventSources),
	)
	return c, nil
}

func (c *Container) initDatabase(ctx context.Context) error {
	driver := database.Driver(c.Config.DatabaseDriver)
	if c.Config.IsSQLite() {
		driver = database.DriverSQLite
	}

	conn, err := database.NewConnection(ctx, database.Config{
		Driver:     driver,
		URL:        c.Config.DatabaseURL,
		SQLitePath: c.Config.SQLitePath,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := migrations.Run(ctx, conn); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	c.DBConn = conn
	c.DBDriver = conn.Driver()
	c.Health.Register("database", observability.PingCheck("database", observability.HealthStatusUnhealthy, conn.Ping))
	c.Logger.Info("connected to database", "driver", c.DBDriver)
	return nil
}

func (c *Container) initRepositories() error {
	repos, err := NewRepositories(c.DBConn)
	if err != nil {
		return fmt.Errorf("failed to create repositories: %w", err)
	}

	c.EventRepo = repos.Events
	c.ItemRepo = repos.Items
	c.OutboxRepo = repos.Outbox
	c.UnitOfWork = database.NewUnitOfWork(c.DBConn)
	c.Health.Register("outbox", outboxCheck(repos.Outbox))
	return nil
}

// outboxCheck degrades when messages are dead-lettered; refresh signals for
// those writes never reached other processes.
func outboxCheck(store outbox.Store) observability.HealthChecker {
	return func(ctx context.Context) observability.HealthCheckResult {
		backlog, err := store.Backlog(ctx)
		if err != nil {
			return observability.HealthCheckResult{
				Status:  observability.HealthStatusUnhealthy,
				Message: "outbox unreadable: " + err.Error(),
			}
		}
		result := observability.HealthCheckResult{
			Status:  observability.HealthStatusHealthy,
			Message: "outbox draining",
			Details: map[string]any{
				"pending":  backlog.Pending,
				"retrying": backlog.Retrying,
				"dead":     backlog.Dead,
			},
		}
		if backlog.Dead > 0 {
			result.Status = observability.HealthStatusDegraded
			result.Message = "outbox has dead-lettered messages"
		}
		return result
	}
}

// initRedis connects the shared refresh counter and snapshot cache.
// Development falls back to in-memory when Redis is unreachable.
func (c *Container) initRedis(ctx context.Context) error {
	c.Refresh = services.NewMemoryRefreshTrigger()
	c.AgendaCache = queries.NoopCache{}

	if !c.Config.HasRedis() {
		return nil
	}

	opt, err := redis.ParseURL(c.Config.RedisURL)
	if err != nil {
		if !c.Config.IsDevelopment() {
			return fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		c.Logger.Warn("invalid Redis URL, agenda cache disabled", "error", err)
		return nil
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		if !c.Config.IsDevelopment() {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		c.Logger.Warn("Redis not available, agenda cache disabled", "error", err)
		return nil
	}

	c.RedisClient = client
	c.Refresh = cache.NewRedisRefreshTrigger(client)
	c.AgendaCache = cache.NewRedisAgendaCache(client, c.Config.AgendaCacheTTL)
	c.Health.Register("redis", observability.PingCheck("redis", observability.HealthStatusDegraded, func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}))
	c.Logger.Info("connected to Redis")
	return nil
}

// initPublisher relays outbox messages to RabbitMQ when configured, otherwise
// to an in-process bus that feeds the refresh subscriber directly.
func (c *Container) initPublisher() error {
	c.RefreshSubscriber = subscribers.NewRefreshSubscriber(c.Refresh, c.Metrics, c.Logger)

	if c.Config.HasRabbitMQ() {
		publisher, err := eventbus.NewRabbitMQPublisher(c.Config.RabbitMQURL, c.Logger)
		if err == nil {
			c.EventPublisher = publisher
			c.Health.Register("rabbitmq", observability.PingCheck("rabbitmq", observability.HealthStatusDegraded, publisher.Ping))
			return nil
		}
		if !c.Config.IsDevelopment() {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		c.Logger.Warn("RabbitMQ not available, using in-process event bus", "error", err)
	}

	c.LocalBus = eventbus.NewLocalBus(c.Logger)
	c.LocalBus.Subscribe(c.RefreshSubscriber)
	c.EventPublisher = c.LocalBus
	return nil
}

func (c *Container) initHandlers() {
	cfg := c.Config

	c.SourceLoader = services.NewSourceLoader(c.EventRepo, c.ItemRepo, c.EventSources, c.Metrics, c.Logger, services.LoaderConfig{
		BreakerFailures: uint32(max(cfg.SourceBreakerFailures, 1)),
		BreakerTimeout:  cfg.SourceBreakerTimeout,
	})

	support := commands.Support{
		Outbox:  c.OutboxRepo,
		UoW:     c.UnitOfWork,
		Refresh: c.Refresh,
		Clock:   c.Clock,
		Logger:  c.Logger,
		Metrics: c.Metrics,
	}
	c.ScheduleItemHandler = commands.NewScheduleItemHandler(c.EventRepo, c.ItemRepo, support, cfg.DefaultDurationMinutes)
	c.QuickScheduleHandler = commands.NewQuickScheduleHandler(c.ScheduleItemHandler, c.Clock)
	c.DeferItemHandler = commands.NewDeferItemHandler(c.ItemRepo, support)
	c.UnscheduleItemHandler = commands.NewUnscheduleItemHandler(c.EventRepo, c.ItemRepo, support)
	c.CreateItemHandler = commands.NewCreateItemHandler(c.ItemRepo, support)
	c.CreateEventHandler = commands.NewCreateEventHandler(c.EventRepo, support, cfg.DefaultDurationMinutes)

	pipeline := queries.Pipeline{
		Loader:      c.SourceLoader,
		Normalizer:  services.NewNormalizer(c.Clock, c.Logger, cfg.DefaultDurationMinutes),
		Transitions: services.NewTransitionSynthesizer(c.Clock, cfg.TransitionThresholdMinutes),
		Refresh:     c.Refresh,
		Cache:       c.AgendaCache,
		Clock:       c.Clock,
		Metrics:     c.Metrics,
		Logger:      c.Logger,
	}
	c.GetDayAgendaHandler = queries.NewGetDayAgendaHandler(pipeline)
	c.GetWeekAgendaHandler = queries.NewGetWeekAgendaHandler(pipeline)
	c.GetSidebarHandler = queries.NewGetSidebarHandler(pipeline)
}

// DrainOutbox relays every pending outbox message once. Short-lived processes
// call it after a write so subscribers see the change before exit.
func (c *Container) DrainOutbox(ctx context.Context) {
	if c.OutboxProcessor == nil {
		return
	}
	n, err := c.OutboxProcessor.Drain(ctx)
	if err != nil {
		c.Logger.WarnContext(ctx, "outbox drain failed", "error", err)
		return
	}
	if n > 0 {
		c.Logger.DebugContext(ctx, "outbox drained", "relayed", n)
	}
}

// Close cleans up all resources.
func (c *Container) Close() {
	if c.OutboxProcessor != nil && c.OutboxProcessor.IsRunning() {
		c.OutboxProcessor.Stop()
	}

	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", "error", err)
		} else {
			c.Logger.Info("Redis connection closed")
		}
	}

	if c.DBConn != nil {
		if err := c.DBConn.Close(); err != nil {
			c.Logger.Warn("error closing database connection", "error", err)
		} else {
			c.Logger.Info("database connection closed", "driver", c.DBDriver)
		}
	}
}
