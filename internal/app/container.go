// Package app wires the planner's dependencies into one container shared by
// every CLI command.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	agendaApplication "github.com/hotelops/roster/internal/agenda/application"
	agendaDomain "github.com/hotelops/roster/internal/agenda/domain"
	agendaPersistence "github.com/hotelops/roster/internal/agenda/infrastructure/persistence"
	assignmentApplication "github.com/hotelops/roster/internal/assignment/application"
	calendarApplication "github.com/hotelops/roster/internal/calendar/application"
	calendarDomain "github.com/hotelops/roster/internal/calendar/domain"
	calendarPersistence "github.com/hotelops/roster/internal/calendar/infrastructure/persistence"
	convocationApplication "github.com/hotelops/roster/internal/convocation/application"
	convocationDomain "github.com/hotelops/roster/internal/convocation/domain"
	convocationPersistence "github.com/hotelops/roster/internal/convocation/infrastructure/persistence"
	datalakeApplication "github.com/hotelops/roster/internal/datalake/application"
	datalakeDomain "github.com/hotelops/roster/internal/datalake/domain"
	datalakePersistence "github.com/hotelops/roster/internal/datalake/infrastructure/persistence"
	demandApplication "github.com/hotelops/roster/internal/demand/application"
	demandDomain "github.com/hotelops/roster/internal/demand/domain"
	demandPersistence "github.com/hotelops/roster/internal/demand/infrastructure/persistence"
	forecastApplication "github.com/hotelops/roster/internal/forecast/application"
	forecastDomain "github.com/hotelops/roster/internal/forecast/domain"
	forecastPersistence "github.com/hotelops/roster/internal/forecast/infrastructure/persistence"
	"github.com/hotelops/roster/internal/pipeline"
	rulesApplication "github.com/hotelops/roster/internal/rules/application"
	rulesDomain "github.com/hotelops/roster/internal/rules/domain"
	rulesPersistence "github.com/hotelops/roster/internal/rules/infrastructure/persistence"
	scheduleApplication "github.com/hotelops/roster/internal/schedule/application"
	scheduleDomain "github.com/hotelops/roster/internal/schedule/domain"
	schedulePersistence "github.com/hotelops/roster/internal/schedule/infrastructure/persistence"
	sharedApplication "github.com/hotelops/roster/internal/shared/application"
	"github.com/hotelops/roster/internal/shared/infrastructure/database"
	_ "github.com/hotelops/roster/internal/shared/infrastructure/database/postgres" // register driver
	_ "github.com/hotelops/roster/internal/shared/infrastructure/database/sqlite"   // register driver
	"github.com/hotelops/roster/internal/shared/infrastructure/eventbus"
	"github.com/hotelops/roster/internal/shared/infrastructure/migrations"
	statsApplication "github.com/hotelops/roster/internal/stats/application"
	statsDomain "github.com/hotelops/roster/internal/stats/domain"
	statsPersistence "github.com/hotelops/roster/internal/stats/infrastructure/persistence"
	suggestionApplication "github.com/hotelops/roster/internal/suggestion/application"
	suggestionDomain "github.com/hotelops/roster/internal/suggestion/domain"
	suggestionPersistence "github.com/hotelops/roster/internal/suggestion/infrastructure/persistence"
	traceApplication "github.com/hotelops/roster/internal/trace/application"
	traceDomain "github.com/hotelops/roster/internal/trace/domain"
	tracePersistence "github.com/hotelops/roster/internal/trace/infrastructure/persistence"
	workforce "github.com/hotelops/roster/internal/workforce/domain"
	workforcePersistence "github.com/hotelops/roster/internal/workforce/infrastructure/persistence"
	"github.com/hotelops/roster/pkg/config"
)

// Container holds all application dependencies.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	// Infrastructure
	DBConn      database.Connection
	RedisClient *redis.Client
	Bus         eventbus.Publisher
	UnitOfWork  sharedApplication.UnitOfWork

	// Repositories
	SectorRepo      workforce.SectorRepository
	EmployeeRepo    workforce.EmployeeRepository
	ActivityRepo    workforce.ActivityRepository
	Lake            datalakeDomain.Store
	StatsRepo       statsDomain.Repository
	RuleRepo        rulesDomain.Repository
	CalendarRepo    calendarDomain.Repository
	TraceRepo       traceDomain.Repository
	ForecastRepo    forecastDomain.Repository
	DemandRepo      demandDomain.Repository
	ScheduleRepo    scheduleDomain.Repository
	AgendaRepo      agendaDomain.Repository
	ConvocationRepo convocationDomain.Repository
	SuggestionRepo  suggestionDomain.Repository

	// Services and engines
	Ingest       *datalakeApplication.IngestService
	Stats        *statsApplication.Engine
	StatsLookup  *statsApplication.Lookup
	Rules        *rulesApplication.Service
	Calendar     *calendarApplication.Service
	TraceSink    *traceApplication.Sink
	TraceSweeper *traceApplication.Sweeper
	Pipeline     *pipeline.Builder
	Forecast     *forecastApplication.Service
	Demand       *demandApplication.Engine
	Schedule     *scheduleApplication.Generator
	Assignment   *assignmentApplication.Engine
	Agenda       *agendaApplication.Engine
	Convocation  *convocationApplication.Service
	Suggestion   *suggestionApplication.Engine
}

// NewContainer connects the infrastructure, runs migrations, and wires all
// repositories and engines.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	conn, err := database.NewConnection(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := migrations.Run(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	c.DBConn = conn
	logger.Info("connected to database", "driver", conn.Driver())

	// Redis is an optional fast path; everything degrades without it.
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Warn("invalid Redis URL, running without Redis", "error", err)
		} else {
			client := redis.NewClient(opt)
			if err := client.Ping(ctx).Err(); err != nil {
				logger.Warn("Redis not available, running without Redis", "error", err)
			} else {
				c.RedisClient = client
				logger.Info("connected to Redis")
			}
		}
	}

	// RabbitMQ when configured, in-process bus otherwise.
	if cfg.RabbitMQURL != "" {
		publisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, logger)
		if err != nil {
			if cfg.IsProduction() {
				conn.Close()
				return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
			}
			logger.Warn("RabbitMQ not available, using in-process bus", "error", err)
			c.Bus = eventbus.NewInProcessBus(logger)
		} else {
			c.Bus = publisher
		}
	} else {
		c.Bus = eventbus.NewInProcessBus(logger)
	}

	c.UnitOfWork = database.NewUnitOfWork(conn)

	// Repositories
	c.SectorRepo = workforcePersistence.NewSectorRepository(conn)
	c.EmployeeRepo = workforcePersistence.NewEmployeeRepository(conn)
	c.ActivityRepo = workforcePersistence.NewActivityRepository(conn)
	c.Lake = datalakePersistence.NewStore(conn)
	c.StatsRepo = statsPersistence.NewRepository(conn)
	c.RuleRepo = rulesPersistence.NewRepository(conn)
	c.CalendarRepo = calendarPersistence.NewRepository(conn)
	c.TraceRepo = tracePersistence.NewRepository(conn)
	c.ForecastRepo = forecastPersistence.NewRepository(conn)
	c.DemandRepo = demandPersistence.NewRepository(conn)
	c.ScheduleRepo = schedulePersistence.NewRepository(conn)
	c.AgendaRepo = agendaPersistence.NewRepository(conn)
	c.ConvocationRepo = convocationPersistence.NewRepository(conn)
	c.SuggestionRepo = suggestionPersistence.NewRepository(conn)

	// Cross-cutting services
	c.TraceSink = traceApplication.NewSink(c.TraceRepo, logger)
	c.TraceSweeper = traceApplication.NewSweeper(c.TraceRepo, c.UnitOfWork, cfg.RunSweepTimeout, logger)
	c.Rules = rulesApplication.NewService(c.RuleRepo, c.UnitOfWork, logger)
	c.Calendar = calendarApplication.NewService(c.CalendarRepo, c.UnitOfWork, logger)
	c.Pipeline = pipeline.NewBuilder(c.Rules, c.Calendar, c.TraceSink)

	// Planning engines
	c.Ingest = datalakeApplication.NewIngestService(c.Lake, c.UnitOfWork, c.RedisClient, logger)
	c.Stats = statsApplication.NewEngine(c.StatsRepo, c.Lake, c.UnitOfWork, cfg.EWMAAlpha, logger)
	c.StatsLookup = statsApplication.NewLookup(c.StatsRepo)
	c.Forecast = forecastApplication.NewService(
		c.ForecastRepo, c.Lake, c.StatsLookup, c.SectorRepo, c.ActivityRepo,
		c.Rules, c.UnitOfWork, c.Bus, cfg.EWMAAlpha, logger,
	)
	c.Demand = demandApplication.NewEngine(c.DemandRepo, c.Lake, c.ActivityRepo, c.RuleRepo, c.UnitOfWork, logger)
	c.Schedule = scheduleApplication.NewGenerator(c.ScheduleRepo, c.StatsLookup, c.UnitOfWork, logger)
	c.Assignment = assignmentApplication.NewEngine(c.ScheduleRepo, c.EmployeeRepo, c.UnitOfWork, logger)
	c.Agenda = agendaApplication.NewEngine(
		c.AgendaRepo, c.ScheduleRepo, c.DemandRepo, c.ActivityRepo,
		c.RedisClient, cfg.AgendaLockTTL, c.UnitOfWork, logger,
	)
	c.Convocation = convocationApplication.NewService(
		c.ConvocationRepo, c.ScheduleRepo, c.Assignment, c.UnitOfWork, c.Bus, logger,
	)
	c.Suggestion = suggestionApplication.NewEngine(
		c.SuggestionRepo, c.ForecastRepo, c.DemandRepo,
		suggestionApplication.Thresholds{
			CostPerHead: cfg.CostPerHead,
			ReplanCost:  cfg.CostPerHead, // one head of drift is worth a look
			OccDeltaPP:  cfg.ReplanThresholdPP,
		},
		c.UnitOfWork, logger,
	)

	return c, nil
}

// Close releases infrastructure handles.
func (c *Container) Close() error {
	var firstErr error
	if c.Bus != nil {
		if err := c.Bus.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.DBConn != nil {
		if err := c.DBConn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
