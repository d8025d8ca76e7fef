package database

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"factoryfeed/internal/config"
	"factoryfeed/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestConnect_SQLiteMigrates(t *testing.T) {
	cfg := &config.Config{
		Env:      "test",
		DBDriver: "sqlite",
		DBPath:   filepath.Join(t.TempDir(), "test.db"),
	}

	db, err := Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	for _, m := range Models() {
		assert.True(t, db.Migrator().HasTable(m), "missing table for %T", m)
	}
	assert.True(t, db.Migrator().HasTable("followers"))

	f := models.Factory{ID: "factory_001", Name: "Plant", Location: "Busan"}
	require.NoError(t, db.Create(&f).Error)
	var got models.Factory
	require.NoError(t, db.First(&got, "id = ?", "factory_001").Error)
	assert.Equal(t, models.FactoryStatusNormal, got.Status)
}

func TestDialector(t *testing.T) {
	d, err := Dialector(&config.Config{DBDriver: "postgres", DBHost: "db", DBPort: "5432"})
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())

	d, err = Dialector(&config.Config{DBDriver: "sqlite", DBPath: "x.db"})
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d.Name())

	_, err = Dialector(&config.Config{DBDriver: "oracle"})
	assert.Error(t, err)
}

func TestCustomGormLogger_Trace(t *testing.T) {
	var buf bytes.Buffer
	l := NewGormLogger(slog.New(slog.NewTextHandler(&buf, nil)), logger.Warn)
	ctx := context.Background()

	l.Trace(ctx, time.Now(), func() (string, int64) { return "SELECT 1", 1 }, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String(), "record not found is not an error")

	l.Trace(ctx, time.Now(), func() (string, int64) { return "SELECT 1", 0 }, errors.New("boom"))
	assert.Contains(t, buf.String(), "GORM query error")

	buf.Reset()
	l.Trace(ctx, time.Now().Add(-time.Second), func() (string, int64) { return "SELECT 2", 0 }, nil)
	assert.Contains(t, buf.String(), "GORM slow query")

	buf.Reset()
	silent := l.LogMode(logger.Silent)
	silent.Trace(ctx, time.Now(), func() (string, int64) { return "SELECT 3", 0 }, errors.New("boom"))
	assert.Empty(t, buf.String())
}
