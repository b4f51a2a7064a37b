package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"readingtracker/internal/bot"
	"readingtracker/internal/config"
	"readingtracker/internal/storage"
	"readingtracker/internal/storage/ch"
	"readingtracker/internal/storage/file"
	"readingtracker/internal/storage/kv"
	"readingtracker/internal/storage/sqlite"
	"readingtracker/internal/storage/stubs"
	"readingtracker/internal/tracker"
)

// App represents the application
type App struct {
	config  *config.Config
	logger  *zap.Logger
	db      storage.Storage
	tracker *tracker.Service
	bot     *bot.Bot
	server  *http.Server
}

// New creates and initializes a new application instance
func New() (*App, error) {
	// Load .env file if it exists
	envErr := godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	if envErr != nil {
		logger.Info("No .env file found, using system environment variables")
	}

	app := &App{config: cfg, logger: logger}

	logger.Info("Starting Reading Tracker...",
		zap.String("storage_backend", cfg.StorageBackend),
		zap.String("timezone", cfg.Location.String()),
	)

	ctx := context.Background()
	if err := app.initDatabase(ctx); err != nil {
		return nil, err
	}

	if err := app.initTracker(ctx); err != nil {
		return nil, err
	}

	if !cfg.BotDisabled {
		if err := app.initBot(); err != nil {
			return nil, err
		}
	}

	app.initHTTPServer()

	return app, nil
}

func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}
	return cfg.Build()
}

// openStorage creates the adapter selected by the configuration
func openStorage(cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	switch cfg.StorageBackend {
	case config.BackendMemory:
		logger.Info("Using in-memory storage, data is lost on restart")
		return stubs.NewMockDB(), nil
	case config.BackendFile:
		logger.Info("Using file storage", zap.String("path", cfg.DataFile))
		return file.NewFileStorage(cfg.DataFile, logger), nil
	case config.BackendSQLite:
		logger.Info("Using SQLite storage", zap.String("path", cfg.SQLitePath))
		return sqlite.NewSQLiteDB(cfg.SQLitePath, logger)
	case config.BackendBadger:
		logger.Info("Using Badger storage", zap.String("path", cfg.BadgerPath))
		return kv.NewBadgerDB(kv.Config{Path: cfg.BadgerPath, SyncWrites: true}, logger)
	case config.BackendClickHouse:
		logger.Info("Connecting to ClickHouse",
			zap.String("host", cfg.ClickHouseHost),
			zap.Int("port", cfg.ClickHousePort),
			zap.String("database", cfg.ClickHouseDatabase),
			zap.String("user", cfg.ClickHouseUser),
			zap.Bool("tls", cfg.ClickHouseUseTLS),
		)
		return ch.NewClickHouseDB(
			cfg.ClickHouseHost,
			cfg.ClickHousePort,
			cfg.ClickHouseDatabase,
			cfg.ClickHouseUser,
			cfg.ClickHousePassword,
			cfg.ClickHouseUseTLS,
			logger,
		)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// initDatabase opens and initializes the storage adapter
func (a *App) initDatabase(ctx context.Context) error {
	db, err := openStorage(a.config, a.logger)
	if err != nil {
		return fmt.Errorf("failed to open %s storage: %w", a.config.StorageBackend, err)
	}

	if err := db.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	a.logger.Info("Database initialized successfully")

	a.db = db
	return nil
}

// initTracker loads the collection into the mutation service
func (a *App) initTracker(ctx context.Context) error {
	svc, err := tracker.New(ctx, a.db, a.logger, tracker.WithLocation(a.config.Location))
	if err != nil {
		return err
	}
	a.tracker = svc
	return nil
}

// initBot initializes the Telegram bot
func (a *App) initBot() error {
	telegramBot, err := bot.NewBot(a.config.TelegramToken, a.tracker, a.config.AllowedUserIDs, a.logger)
	if err != nil {
		return fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	a.logger.Info("Bot created successfully", zap.Int64s("allowed_users", a.config.AllowedUserIDs))

	a.bot = telegramBot
	return nil
}

// initHTTPServer initializes the HTTP server for health checks, metrics,
// the JSON API and the webhook
func (a *App) initHTTPServer() {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK")
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		mode := "polling"
		switch {
		case a.bot == nil:
			mode = "bot disabled"
		case a.config.WebhookMode:
			mode = "webhook"
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "Reading Tracker is running (mode: %s)", mode)
	})

	mux.Handle("/metrics", promhttp.Handler())

	api := bot.NewHTTPServer(a.tracker, a.logger, a.config.TelegramToken, a.config.AllowedUserIDs, a.config.WebhookMode)
	api.RegisterRoutes(mux)

	// Webhook endpoint (only used in webhook mode)
	if a.bot != nil && a.config.WebhookMode {
		mux.HandleFunc("/telegram-webhook", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}

			var update tgbotapi.Update
			if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
				a.logger.Warn("Error decoding webhook update", zap.Error(err))
				w.WriteHeader(http.StatusBadRequest)
				return
			}

			// Process update in background to respond quickly to Telegram
			go a.bot.HandleWebhookUpdate(update)

			w.WriteHeader(http.StatusOK)
		})
	}

	a.server = &http.Server{
		Addr:         ":" + a.config.Port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// Run starts the application and blocks until shutdown
func (a *App) Run() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		a.logger.Info("Starting HTTP server", zap.String("port", a.config.Port))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	switch {
	case a.bot == nil:
		a.logger.Info("Bot disabled, serving the HTTP API only")
	case a.config.WebhookMode:
		a.logger.Info("Starting bot in WEBHOOK mode", zap.String("webhook_url", a.config.WebhookURL))
		if err := a.bot.StartWebhook(a.config.WebhookURL); err != nil {
			return fmt.Errorf("failed to setup webhook: %w", err)
		}
		a.logger.Info("Webhook configured. Bot will receive updates via HTTP endpoint /telegram-webhook")
	default:
		go func() {
			if err := a.bot.Start(); err != nil {
				a.logger.Error("Bot polling stopped", zap.Error(err))
			}
		}()
	}

	select {
	case <-sigChan:
	case err := <-serverErr:
		a.logger.Error("HTTP server error", zap.Error(err))
	}

	a.logger.Info("Shutting down...")
	return a.Shutdown()
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown() error {
	defer func() { _ = a.logger.Sync() }()

	if a.bot != nil && !a.config.WebhookMode {
		a.bot.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("HTTP server shutdown error", zap.Error(err))
	}

	if err := a.db.Close(); err != nil {
		a.logger.Error("Error closing database", zap.Error(err))
		return err
	}

	a.logger.Info("Shutdown complete")
	return nil
}
