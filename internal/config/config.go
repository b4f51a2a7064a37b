package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backends selectable with STORAGE_BACKEND
const (
	BackendMemory     = "memory"
	BackendFile       = "file"
	BackendSQLite     = "sqlite"
	BackendBadger     = "badger"
	BackendClickHouse = "clickhouse"
)

// Config holds the application configuration
type Config struct {
	// Bot configuration
	BotDisabled    bool
	TelegramToken  string
	AllowedUserIDs []int64

	// Bot mode configuration
	WebhookMode bool   // If true, use webhook mode; if false, use polling mode
	WebhookURL  string // URL for webhook (required if WebhookMode is true)

	StorageBackend string
	DataFile       string
	SQLitePath     string
	BadgerPath     string

	// ClickHouse configuration
	ClickHouseHost     string
	ClickHousePort     int
	ClickHouseDatabase string
	ClickHouseUser     string
	ClickHousePassword string
	ClickHouseUseTLS   bool

	// Location defines the reader's calendar day
	Location *time.Location

	Port     string
	LogLevel string
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	config := &Config{}

	config.BotDisabled = os.Getenv("BOT_DISABLED") == "true"
	if !config.BotDisabled {
		// Telegram Bot Token (required)
		config.TelegramToken = os.Getenv("TELEGRAM_BOT_TOKEN")
		if config.TelegramToken == "" {
			return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required unless BOT_DISABLED is true")
		}

		// Allowed User IDs (required)
		allowedIDsStr := os.Getenv("ALLOWED_USER_IDS")
		if allowedIDsStr == "" {
			return nil, fmt.Errorf("ALLOWED_USER_IDS is required (comma-separated list of Telegram user IDs)")
		}

		ids, err := parseUserIDs(allowedIDsStr)
		if err != nil {
			return nil, err
		}
		config.AllowedUserIDs = ids

		config.WebhookMode = os.Getenv("WEBHOOK_MODE") == "true"
		if config.WebhookMode {
			config.WebhookURL = os.Getenv("WEBHOOK_URL")
			if config.WebhookURL == "" {
				return nil, fmt.Errorf("WEBHOOK_URL is required when WEBHOOK_MODE is true")
			}
		}
	}

	config.StorageBackend = strings.ToLower(envOr("STORAGE_BACKEND", BackendFile))
	// USE_MOCK_DB predates STORAGE_BACKEND and still wins when set
	if os.Getenv("USE_MOCK_DB") == "true" {
		config.StorageBackend = BackendMemory
	}

	switch config.StorageBackend {
	case BackendMemory:
	case BackendFile:
		config.DataFile = envOr("DATA_FILE", "reading-tracker-books.json")
	case BackendSQLite:
		config.SQLitePath = envOr("SQLITE_PATH", "reading-tracker.db")
	case BackendBadger:
		config.BadgerPath = envOr("BADGER_PATH", "reading-tracker-badger")
	case BackendClickHouse:
		if err := config.loadClickHouse(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", config.StorageBackend)
	}

	config.Location = time.Local
	if tz := os.Getenv("TIMEZONE"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
		}
		config.Location = loc
	}

	config.Port = envOr("PORT", "8080")
	config.LogLevel = strings.ToLower(envOr("LOG_LEVEL", "info"))

	return config, nil
}

func (c *Config) loadClickHouse() error {
	c.ClickHouseHost = os.Getenv("CLICKHOUSE_HOST")
	if c.ClickHouseHost == "" {
		return fmt.Errorf("CLICKHOUSE_HOST is required when STORAGE_BACKEND is clickhouse")
	}

	portStr := os.Getenv("CLICKHOUSE_PORT")
	if portStr == "" {
		c.ClickHousePort = 9000 // Default ClickHouse native port
	} else {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid CLICKHOUSE_PORT: %w", err)
		}
		c.ClickHousePort = port
	}

	c.ClickHouseDatabase = envOr("CLICKHOUSE_DATABASE", "default")
	c.ClickHouseUser = envOr("CLICKHOUSE_USER", "default")
	c.ClickHousePassword = os.Getenv("CLICKHOUSE_PASSWORD") // optional
	c.ClickHouseUseTLS = os.Getenv("CLICKHOUSE_USE_TLS") == "true"
	return nil
}

func parseUserIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, idStr := range strings.Split(raw, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user ID in ALLOWED_USER_IDS: %s", idStr)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
