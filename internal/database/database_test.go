package database

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thierry1804/toa-permit/internal/config"
	"github.com/thierry1804/toa-permit/internal/model"
)

func sqliteConfig() config.DatabaseConfig {
	return config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"}
}

// TestConnectSQLite checks the sqlite driver path.
func TestConnectSQLite(t *testing.T) {
	db, err := Connect(sqliteConfig())
	require.NoError(t, err)
	assert.True(t, CheckHealth(db))
}

// TestMigrate checks that all tables and indexes come up on sqlite.
func TestMigrate(t *testing.T) {
	db, err := Connect(sqliteConfig())
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	for _, table := range []string{"permits", "sequences", "daily_validations", "take5_records", "audit_logs"} {
		assert.True(t, db.Migrator().HasTable(table), "missing table %s", table)
	}

	// Migrate is idempotent.
	assert.NoError(t, Migrate(db))
}

// TestReferenceUniqueIndex checks the partial unique index on references.
func TestReferenceUniqueIndex(t *testing.T) {
	db, err := Connect(sqliteConfig())
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	now := time.Now()
	base := model.PermitModel{
		Category:    model.CategoryGeneral,
		Status:      "validated",
		SubmittedBy: "rakoto",
		Title:       "Travaux",
		StartDate:   now,
		EndDate:     now.Add(24 * time.Hour),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	first := base
	first.ID = "p-1"
	first.Number = "PTW-20251013-001"
	first.Reference = "2025/PTW/001"
	require.NoError(t, db.Create(&first).Error)

	dup := base
	dup.ID = "p-2"
	dup.Number = "PTW-20251013-002"
	dup.Reference = "2025/PTW/001"
	assert.Error(t, db.Create(&dup).Error)

	// Empty references are not covered by the partial index.
	for i, id := range []string{"p-3", "p-4"} {
		draft := base
		draft.ID = id
		draft.Status = "draft"
		draft.Number = fmt.Sprintf("PTW-20251013-%03d", 3+i)
		assert.NoError(t, db.Create(&draft).Error)
	}
}

// TestBuildDSN checks the postgres DSN assembly.
func TestBuildDSN(t *testing.T) {
	dsn := BuildDSN(config.DatabaseConfig{
		Host:     "db.local",
		Port:     5433,
		User:     "toa",
		Password: "secret",
		DBName:   "toa_permit",
		SSLMode:  "require",
	})
	assert.Contains(t, dsn, "host=db.local")
	assert.Contains(t, dsn, "port=5433")
	assert.Contains(t, dsn, "dbname=toa_permit")
	assert.Contains(t, dsn, "sslmode=require")
}
