package container

import (
	"fmt"
	"time"

	"github.com/thierry1804/toa-permit/internal/auth"
	"github.com/thierry1804/toa-permit/internal/config"
	"github.com/thierry1804/toa-permit/internal/database"
	"github.com/thierry1804/toa-permit/internal/metrics"
	"github.com/thierry1804/toa-permit/internal/notify"
	"github.com/thierry1804/toa-permit/internal/repository"
	"github.com/thierry1804/toa-permit/internal/service"
	"github.com/thierry1804/toa-permit/internal/workflow"
	"gorm.io/gorm"
)

// Container wires the application dependencies: database, repositories,
// the workflow engine, services, the notification hub and the sweeper.
type Container struct {
	db               *gorm.DB
	permitService    service.PermitService
	interventionSvc  service.InterventionService
	statsService     service.StatsService
	auditLogService  service.AuditLogService
	hub              *notify.Hub
	validator        *auth.TokenValidator
	sweeper          *service.ExpirySweeper
	metricsCollector *metrics.Collector
}

// NewContainer initializes all dependencies from the configuration.
func NewContainer(cfg *config.Config) (*Container, error) {
	// Retries with exponential backoff cover slow database startup.
	db, err := database.ConnectWithRetry(cfg.Database, 3, time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	permitRepo := repository.NewPermitRepository(db)
	interventionRepo := repository.NewInterventionRepository(db)
	auditLogRepo := repository.NewAuditLogRepository(db)

	engine := workflow.NewEngine(permitRepo)

	auditLogSvc := service.NewAuditLogService(auditLogRepo)

	hub := notify.NewHub()
	go hub.Run()

	permitSvc := service.NewPermitService(engine, permitRepo, auditLogSvc, hub)
	interventionSvc := service.NewInterventionService(engine, permitRepo, interventionRepo, auditLogSvc)
	statsSvc := service.NewStatsService(permitRepo, interventionRepo)

	// An empty secret yields a nil validator, which disables auth.
	validator := auth.NewTokenValidator(cfg.Auth.JWTSecret, cfg.Auth.Issuer)

	var sweeper *service.ExpirySweeper
	if cfg.Sweeper.Enabled {
		sweeper = service.NewExpirySweeper(permitSvc, cfg.Sweeper.Schedule, nil)
	}

	collector := metrics.NewCollector(db, 30*time.Second)
	collector.Start()

	return &Container{
		db:               db,
		permitService:    permitSvc,
		interventionSvc:  interventionSvc,
		statsService:     statsSvc,
		auditLogService:  auditLogSvc,
		hub:              hub,
		validator:        validator,
		sweeper:          sweeper,
		metricsCollector: collector,
	}, nil
}

// DB returns the database handle.
func (c *Container) DB() *gorm.DB {
	return c.db
}

// PermitService returns the permit service.
func (c *Container) PermitService() service.PermitService {
	return c.permitService
}

// InterventionService returns the intervention service.
func (c *Container) InterventionService() service.InterventionService {
	return c.interventionSvc
}

// StatsService returns the stats service.
func (c *Container) StatsService() service.StatsService {
	return c.statsService
}

// AuditLogService returns the audit log service.
func (c *Container) AuditLogService() service.AuditLogService {
	return c.auditLogService
}

// Hub returns the notification hub.
func (c *Container) Hub() *notify.Hub {
	return c.hub
}

// TokenValidator returns the token validator, nil when auth is disabled.
func (c *Container) TokenValidator() *auth.TokenValidator {
	return c.validator
}

// Sweeper returns the expiry sweeper, nil when disabled.
func (c *Container) Sweeper() *service.ExpirySweeper {
	return c.sweeper
}

// Close releases all container resources.
func (c *Container) Close() error {
	if c.sweeper != nil {
		c.sweeper.Stop()
	}
	if c.metricsCollector != nil {
		c.metricsCollector.Stop()
	}
	if c.hub != nil {
		c.hub.Stop()
	}
	if c.db != nil {
		sqlDB, err := c.db.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	return nil
}
