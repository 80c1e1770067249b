package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/reserva/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/reserva/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/reserva/internal/scheduling/application/services"
	schedulingDomain "github.com/felixgeelhaar/reserva/internal/scheduling/domain"
	schedulingCache "github.com/felixgeelhaar/reserva/internal/scheduling/infrastructure/cache"
	sharedApplication "github.com/felixgeelhaar/reserva/internal/shared/application"
	"github.com/felixgeelhaar/reserva/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/reserva/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/reserva/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/reserva/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/reserva/pkg/config"
	"github.com/redis/go-redis/v9"
)

// Container holds all application dependencies.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	// Database
	Conn database.Connection

	// Redis (nil when availability caching is disabled)
	RedisClient *redis.Client

	// Repositories
	ResourceRepo   schedulingDomain.ResourceRepository
	RuleRepo       schedulingDomain.AvailabilityRuleRepository
	BlockRepo      schedulingDomain.BlockRepository
	CommitmentRepo schedulingDomain.CommitmentRepository
	OutboxRepo     outbox.Repository

	// Publisher
	EventPublisher eventbus.Publisher

	// InProcessEventBus is set when RabbitMQ is unavailable; consumers
	// registered on it receive events published by the outbox processor.
	InProcessEventBus *eventbus.InProcessEventBus

	// Unit of Work
	UnitOfWork sharedApplication.UnitOfWork

	// Domain services
	ConflictResolver *services.ConflictResolver
	ResourceLocker   *services.ResourceLocker
	WindowPolicy     commands.WindowPolicy

	// Command handlers
	CreateCommitmentHandler     *commands.CreateCommitmentHandler
	RescheduleCommitmentHandler *commands.RescheduleCommitmentHandler
	CancelCommitmentHandler     *commands.CancelCommitmentHandler
	ConfirmCommitmentHandler    *commands.ConfirmCommitmentHandler
	AddBlockHandler             *commands.AddBlockHandler
	RemoveBlockHandler          *commands.RemoveBlockHandler

	// Query handlers
	CheckAvailabilityHandler *queries.CheckAvailabilityHandler
	GetCommitmentHandler     *queries.GetCommitmentHandler
	ListCommitmentsHandler   *queries.ListCommitmentsHandler
	ListHistoryHandler       *queries.ListCommitmentHistoryHandler

	// Availability cache (nil when disabled)
	AvailabilityCache queries.AvailabilityCache

	// Outbox processor
	OutboxProcessor *outbox.Processor
}

// NewContainer creates and wires all dependencies.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	driver := database.DriverSQLite
	if cfg.UsePostgres() {
		driver = database.DriverPostgres
	}

	conn, err := database.NewConnection(ctx, database.Config{
		Driver:     driver,
		URL:        cfg.DatabaseURL,
		SQLitePath: cfg.SQLitePath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	c.Conn = conn
	logger.Info("connected to database", "driver", driver)

	if sqliteConn, ok := conn.(interface{ DB() *sql.DB }); ok && driver == database.DriverSQLite {
		if err := migrations.RunSQLiteMigrations(ctx, sqliteConn.DB()); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		logger.Info("SQLite migrations applied")
	}

	factory := NewRepositoryFactory(conn)

	if c.ResourceRepo, err = factory.ResourceRepository(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create resource repository: %w", err)
	}
	if c.RuleRepo, err = factory.AvailabilityRuleRepository(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create availability rule repository: %w", err)
	}
	if c.BlockRepo, err = factory.BlockRepository(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create block repository: %w", err)
	}
	if c.CommitmentRepo, err = factory.CommitmentRepository(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create commitment repository: %w", err)
	}
	if c.OutboxRepo, err = factory.OutboxRepository(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create outbox repository: %w", err)
	}
	if c.UnitOfWork, err = factory.UnitOfWork(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create unit of work: %w", err)
	}

	// Connect to Redis for the availability cache (optional)
	if cfg.AvailabilityCaching && cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			if !cfg.IsDevelopment() {
				conn.Close()
				return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
			}
			logger.Warn("invalid Redis URL, availability checks will not be cached", "error", err)
		} else {
			redisClient := redis.NewClient(opt)
			if err := redisClient.Ping(ctx).Err(); err != nil {
				if !cfg.IsDevelopment() {
					conn.Close()
					return nil, fmt.Errorf("failed to connect to Redis: %w", err)
				}
				logger.Warn("Redis not available, availability checks will not be cached", "error", err)
			} else {
				c.RedisClient = redisClient
				c.AvailabilityCache = schedulingCache.NewRedisAvailabilityCache(redisClient, cfg.AvailabilityTTL)
				logger.Info("connected to Redis", "verdict_ttl", cfg.AvailabilityTTL)
			}
		}
	}

	// Create event publisher
	publisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, logger)
	if err != nil {
		// Fall back to the in-process bus in development
		if cfg.IsDevelopment() {
			logger.Warn("RabbitMQ not available, using in-process event bus")
			c.InProcessEventBus = eventbus.NewInProcessEventBus(logger)
			c.EventPublisher = c.InProcessEventBus
		} else {
			conn.Close()
			return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
	} else {
		c.EventPublisher = publisher
	}

	// Create domain services
	c.ConflictResolver = services.NewConflictResolver(c.ResourceRepo, c.RuleRepo, c.BlockRepo, c.CommitmentRepo, logger)
	c.ResourceLocker = services.NewResourceLocker()
	c.WindowPolicy = commands.NewWindowPolicy(cfg.BookingGracePeriod)

	// Create command handlers
	c.CreateCommitmentHandler = commands.NewCreateCommitmentHandler(
		c.CommitmentRepo, c.ConflictResolver, c.ResourceLocker, c.WindowPolicy, c.OutboxRepo, c.UnitOfWork)
	c.RescheduleCommitmentHandler = commands.NewRescheduleCommitmentHandler(
		c.CommitmentRepo, c.ResourceRepo, c.ConflictResolver, c.ResourceLocker, c.WindowPolicy, c.OutboxRepo, c.UnitOfWork)
	c.CancelCommitmentHandler = commands.NewCancelCommitmentHandler(c.CommitmentRepo, c.ResourceRepo, c.OutboxRepo, c.UnitOfWork)
	c.ConfirmCommitmentHandler = commands.NewConfirmCommitmentHandler(c.CommitmentRepo, c.OutboxRepo, c.UnitOfWork)
	c.AddBlockHandler = commands.NewAddBlockHandler(c.BlockRepo, c.ResourceRepo, c.UnitOfWork)
	c.RemoveBlockHandler = commands.NewRemoveBlockHandler(c.BlockRepo, c.ResourceRepo, c.UnitOfWork)

	// Create query handlers
	c.CheckAvailabilityHandler = queries.NewCheckAvailabilityHandler(c.ConflictResolver, c.AvailabilityCache, logger)
	c.GetCommitmentHandler = queries.NewGetCommitmentHandler(c.CommitmentRepo)
	c.ListCommitmentsHandler = queries.NewListCommitmentsHandler(c.CommitmentRepo, c.ResourceRepo)
	c.ListHistoryHandler = queries.NewListCommitmentHistoryHandler(c.CommitmentRepo)

	// Create outbox processor
	processorConfig := outbox.DefaultProcessorConfig()
	processorConfig.PollInterval = cfg.OutboxPollInterval
	processorConfig.BatchSize = cfg.OutboxBatchSize
	processorConfig.MaxRetries = cfg.OutboxMaxRetries
	c.OutboxProcessor = outbox.NewProcessor(c.OutboxRepo, c.EventPublisher, processorConfig, logger)

	return c, nil
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
		}
	}

	if c.Conn != nil {
		if err := c.Conn.Close(); err != nil {
			c.Logger.Warn("error closing database connection", "error", err)
		} else {
			c.Logger.Info("database connection closed")
		}
	}
}
