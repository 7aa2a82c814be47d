package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"parking-status-backend/config"
	"parking-status-backend/internal/model"
)

func TestDialector(t *testing.T) {
	testCases := []struct {
		name     string
		dsn      string
		expected string
	}{
		{name: "postgres url", dsn: "postgres://user:pw@localhost:5432/parking", expected: "postgres"},
		{name: "postgresql url", dsn: "postgresql://localhost/parking", expected: "postgres"},
		{name: "sqlite memory", dsn: "file::memory:?cache=shared", expected: "sqlite"},
		{name: "sqlite file", dsn: "parking.db", expected: "sqlite"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Dialector(tc.dsn).Name())
		})
	}
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, logger.Silent, LogLevel("silent"))
	assert.Equal(t, logger.Error, LogLevel("ERROR"))
	assert.Equal(t, logger.Info, LogLevel("info"))
	assert.Equal(t, logger.Warn, LogLevel(""))
	assert.Equal(t, logger.Warn, LogLevel("verbose"))
}

func TestInit_SQLiteMemory(t *testing.T) {
	gormDB, err := Init(&config.DatabaseConfig{
		DSN:          "file:db_init_test?mode=memory&cache=shared",
		MaxOpenConns: 1,
		LogLevel:     "silent",
	})
	require.NoError(t, err)

	assert.True(t, gormDB.Migrator().HasTable(&model.SlotEvent{}))
	assert.True(t, gormDB.Migrator().HasTable(&model.PushSubscription{}))

	sub := model.PushSubscription{Endpoint: "https://push.example/1", P256DH: "k", Auth: "a", UserID: "u1", CreatedAt: time.Now()}
	require.NoError(t, gormDB.Create(&sub).Error)

	var count int64
	require.NoError(t, gormDB.Model(&model.PushSubscription{}).Where("user_id = ?", "u1").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
