package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configVars = []string{
	"BOT_DISABLED", "TELEGRAM_BOT_TOKEN", "ALLOWED_USER_IDS", "WEBHOOK_MODE", "WEBHOOK_URL",
	"STORAGE_BACKEND", "USE_MOCK_DB", "DATA_FILE", "SQLITE_PATH", "BADGER_PATH",
	"CLICKHOUSE_HOST", "CLICKHOUSE_PORT", "CLICKHOUSE_DATABASE", "CLICKHOUSE_USER",
	"CLICKHOUSE_PASSWORD", "CLICKHOUSE_USE_TLS", "TIMEZONE", "PORT", "LOG_LEVEL",
}

// clearEnv blanks every variable LoadFromEnv reads for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configVars {
		t.Setenv(k, "")
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("ALLOWED_USER_IDS", "1, 2,3")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 2, 3}, cfg.AllowedUserIDs)
	assert.Equal(t, BackendFile, cfg.StorageBackend)
	assert.Equal(t, "reading-tracker-books.json", cfg.DataFile)
	assert.Equal(t, time.Local, cfg.Location)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.WebhookMode)
}

func TestLoadFromEnv_BotRequirements(t *testing.T) {
	testCases := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing token", env: map[string]string{"ALLOWED_USER_IDS": "1"}},
		{name: "missing users", env: map[string]string{"TELEGRAM_BOT_TOKEN": "t"}},
		{name: "bad user id", env: map[string]string{"TELEGRAM_BOT_TOKEN": "t", "ALLOWED_USER_IDS": "1,abc"}},
		{name: "webhook without url", env: map[string]string{"TELEGRAM_BOT_TOKEN": "t", "ALLOWED_USER_IDS": "1", "WEBHOOK_MODE": "true"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := LoadFromEnv()
			assert.Error(t, err)
		})
	}
}

func TestLoadFromEnv_BotDisabled(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOT_DISABLED", "true")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.BotDisabled)
	assert.Empty(t, cfg.TelegramToken)
}

func TestLoadFromEnv_Backends(t *testing.T) {
	t.Run("mock alias", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("BOT_DISABLED", "true")
		t.Setenv("STORAGE_BACKEND", "sqlite")
		t.Setenv("USE_MOCK_DB", "true")

		cfg, err := LoadFromEnv()
		require.NoError(t, err)
		assert.Equal(t, BackendMemory, cfg.StorageBackend)
	})

	t.Run("clickhouse defaults", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("BOT_DISABLED", "true")
		t.Setenv("STORAGE_BACKEND", "ClickHouse")
		t.Setenv("CLICKHOUSE_HOST", "db")

		cfg, err := LoadFromEnv()
		require.NoError(t, err)
		assert.Equal(t, BackendClickHouse, cfg.StorageBackend)
		assert.Equal(t, 9000, cfg.ClickHousePort)
		assert.Equal(t, "default", cfg.ClickHouseDatabase)
		assert.Equal(t, "default", cfg.ClickHouseUser)
	})

	t.Run("clickhouse needs host", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("BOT_DISABLED", "true")
		t.Setenv("STORAGE_BACKEND", "clickhouse")

		_, err := LoadFromEnv()
		assert.Error(t, err)
	})

	t.Run("unknown backend", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("BOT_DISABLED", "true")
		t.Setenv("STORAGE_BACKEND", "postgres")

		_, err := LoadFromEnv()
		assert.Error(t, err)
	})
}

func TestLoadFromEnv_Timezone(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOT_DISABLED", "true")
	t.Setenv("TIMEZONE", "UTC")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "UTC", cfg.Location.String())

	t.Setenv("TIMEZONE", "Not/AZone")
	_, err = LoadFromEnv()
	assert.Error(t, err)
}
