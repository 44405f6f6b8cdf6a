package database

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/fenceadmin/internal/models"
)

func TestOpenSQLiteMemory(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Exec("SELECT 1").Error)
}

func TestAutoMigrateCreatesStateTables(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, AutoMigrateAndSeed(db))

	migrator := db.Migrator()
	for _, table := range []any{&models.CacheEntry{}, &models.SystemSetting{}, &models.JournalEntry{}} {
		require.True(t, migrator.HasTable(table), "expected table for %T to exist", table)
	}
}

func TestOpenSQLiteFileCreatesDirectory(t *testing.T) {
	path := t.TempDir() + "/nested/state.db"
	db, err := Open(Config{Driver: "sqlite", Path: path, MaxOpenConns: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	require.NoError(t, AutoMigrate(db))
	require.FileExists(t, path)
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := Open(Config{Driver: "sqlite", DSN: "file:" + t.Name() + "?mode=memory&cache=shared"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })
	return db
}
