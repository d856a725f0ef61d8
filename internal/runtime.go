package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/pit/internal/index"
	"github.com/starford/pit/internal/storage"
	"github.com/starford/pit/internal/task"
	"github.com/starford/pit/internal/taskservice"
)

// Runtime is the wired core shared by the server, the MCP server and the
// one-shot commands.
type Runtime struct {
	Config  *Config
	Logger  *slog.Logger
	Store   *storage.FS
	DB      *index.DB
	Tasks   *task.Extractor
	Service *taskservice.Service
}

// NewRuntime validates the options, sets the default logger, opens the vault
// and index and runs the initial sync. Extra service options are applied
// after the configured ones.
func NewRuntime(opts []Option, svcOpts ...taskservice.Option) (*Runtime, error) {
	app := newApplication(opts)
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure vault directory exists.
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	ex := task.NewExtractor(cfg.Tasks.DefaultPriority)
	ex.Logger = logger

	if err := index.Sync(db, store, ex, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	svc := taskservice.NewService(store, db, ex, append([]taskservice.Option{
		taskservice.WithLogger(logger),
		taskservice.WithSettings(taskservice.Settings{
			DefaultPriority:      cfg.Tasks.DefaultPriority,
			MarkChildrenComplete: cfg.Tasks.MarkChildrenComplete,
			HistoryDays:          cfg.Tasks.HistoryDays,
		}),
	}, svcOpts...)...)

	return &Runtime{
		Config:  cfg,
		Logger:  logger,
		Store:   store,
		DB:      db,
		Tasks:   ex,
		Service: svc,
	}, nil
}

// Close releases the index.
func (rt *Runtime) Close() error {
	return rt.DB.Close()
}

// Watch re-indexes the vault on change until ctx is cancelled. Every
// watcher event settles the toggle latch for its document and, when publish
// is non-nil, is forwarded to live clients.
func (rt *Runtime) Watch(ctx context.Context, publish func(kind, path string)) error {
	return index.Watch(ctx, rt.DB, rt.Store, rt.Tasks, rt.Store.Root(), rt.Logger, func(kind, path string) {
		if publish != nil {
			publish(kind, path)
		}
		rt.Service.Settled(path)
	})
}
