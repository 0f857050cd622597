package database

import (
	"context"
	"fmt"
	"time"

	"github.com/thierry1804/toa-permit/internal/config"
	"github.com/thierry1804/toa-permit/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// PoolConfig holds the connection pool settings.
type PoolConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime int // seconds
	ConnMaxIdleTime int // seconds
}

// BuildDSN builds the PostgreSQL DSN.
func BuildDSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
}

// GetPoolConfig returns the default pool settings.
func GetPoolConfig() *PoolConfig {
	return &PoolConfig{
		MaxIdleConns:    10,
		MaxOpenConns:    100,
		ConnMaxLifetime: 3600,
		ConnMaxIdleTime: 600,
	}
}

// Connect opens the database selected by cfg.Driver and applies the pool
// settings.
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite", "sqlite3":
		path := cfg.Path
		if path == "" {
			path = "toa-permit.db"
		}
		dialector = sqlite.Open(path)
	default:
		dialector = postgres.Open(BuildDSN(cfg))
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	poolConfig := GetPoolConfig()
	if cfg.MaxIdleConns > 0 {
		poolConfig.MaxIdleConns = cfg.MaxIdleConns
	}
	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxOpenConns = cfg.MaxOpenConns
	}
	if cfg.ConnMaxLifetime > 0 {
		poolConfig.ConnMaxLifetime = cfg.ConnMaxLifetime
	}
	if cfg.ConnMaxIdleTime > 0 {
		poolConfig.ConnMaxIdleTime = cfg.ConnMaxIdleTime
	}

	sqlDB.SetMaxIdleConns(poolConfig.MaxIdleConns)
	sqlDB.SetMaxOpenConns(poolConfig.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(poolConfig.ConnMaxLifetime) * time.Second)
	sqlDB.SetConnMaxIdleTime(time.Duration(poolConfig.ConnMaxIdleTime) * time.Second)

	return db, nil
}

// ConnectWithRetry connects with exponential backoff between attempts.
func ConnectWithRetry(cfg config.DatabaseConfig, maxRetries int, retryInterval time.Duration) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	for i := 0; i < maxRetries; i++ {
		db, err = Connect(cfg)
		if err == nil {
			return db, nil
		}

		if i < maxRetries-1 {
			time.Sleep(retryInterval)
			retryInterval *= 2
		}
	}

	return nil, fmt.Errorf("failed to connect database after %d retries: %w", maxRetries, err)
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.PermitModel{},
		&model.SequenceModel{},
		&model.DailyValidationModel{},
		&model.Take5Model{},
		&model.AuditLogModel{},
	); err != nil {
		return fmt.Errorf("failed to auto migrate: %w", err)
	}

	if err := CreateIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// CreateIndexes creates the composite and engine-specific indexes that
// tag-level declarations cannot express.
func CreateIndexes(db *gorm.DB) error {
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_permits_status_category ON permits(status, category)").Error; err != nil {
		return fmt.Errorf("failed to create idx_permits_status_category: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_permits_status_end_date ON permits(status, end_date)").Error; err != nil {
		return fmt.Errorf("failed to create idx_permits_status_end_date: %w", err)
	}
	if err := db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_permits_reference ON permits(reference) WHERE reference <> ''").Error; err != nil {
		return fmt.Errorf("failed to create idx_permits_reference: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_daily_validations_permit_date ON daily_validations(permit_id, date)").Error; err != nil {
		return fmt.Errorf("failed to create idx_daily_validations_permit_date: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_take5_permit_date ON take5_records(permit_id, date)").Error; err != nil {
		return fmt.Errorf("failed to create idx_take5_permit_date: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_audit_resource ON audit_logs(resource_type, resource_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_audit_resource: %w", err)
	}

	// JSONB GIN index, postgres only.
	if db.Dialector.Name() == "postgres" {
		if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_permits_payload_gin ON permits USING GIN (payload)").Error; err != nil {
			return fmt.Errorf("failed to create idx_permits_payload_gin: %w", err)
		}
	}

	return nil
}

// CheckHealth pings the database.
func CheckHealth(db *gorm.DB) bool {
	if db == nil {
		return false
	}

	sqlDB, err := db.DB()
	if err != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return sqlDB.PingContext(ctx) == nil
}

// Reconnect closes the old handle and opens a fresh connection.
func Reconnect(cfg config.DatabaseConfig, oldDB *gorm.DB) (*gorm.DB, error) {
	if oldDB != nil {
		if sqlDB, err := oldDB.DB(); err == nil {
			sqlDB.Close()
		}
	}

	return Connect(cfg)
}
