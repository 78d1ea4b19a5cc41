package database

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gdg-garage/mess-billing/internal/models"
)

func TestOpenMigratesEveryModel(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "mess.db"))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	for _, m := range Models {
		assert.True(t, db.Migrator().HasTable(m), "%T", m)
	}
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestOpenBadPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "dir", "mess.db"))
	assert.Error(t, err)
}

func TestOpenLogsErrorsButNotMissingRows(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	db, err := Open(":memory:")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()
	buf.Reset()

	err = db.First(&models.Bill{}, 42).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String(), "a lookup that finds nothing is not logged")

	var rows []map[string]any
	require.Error(t, db.Table("no_such_table").Find(&rows).Error)
	assert.Contains(t, buf.String(), "no such table")
}
