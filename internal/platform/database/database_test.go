package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskbox/internal/model"
)

func TestOpen_SQLiteAndMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := Open(context.Background(), DriverSQLite, SQLiteDSN(path))
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})

	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db), "migrate is idempotent")

	assert.True(t, db.Migrator().HasTable(&model.Item{}))
	assert.True(t, db.Migrator().HasTable(&model.ItemEvent{}))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "postgres", "whatever")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestOpen_TimestampsInUTC(t *testing.T) {
	orig := time.Local
	time.Local = time.FixedZone("EST", -5*60*60)
	t.Cleanup(func() { time.Local = orig })

	db, err := Open(context.Background(), DriverSQLite, SQLiteDSN(filepath.Join(t.TempDir(), "test.db")))
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})
	require.NoError(t, Migrate(db))

	item := model.Item{Title: "zone"}
	require.NoError(t, db.Create(&item).Error)
	assert.Equal(t, time.UTC, item.CreatedAt.Location())

	var stored model.Item
	require.NoError(t, db.First(&stored, item.ID).Error)
	_, offset := stored.CreatedAt.Zone()
	assert.Zero(t, offset)
}
