// Package cli implements the interactive NoteYou shell: it wires the storage
// facade, the auth and workspace services and the legacy-data migration
// engine, then drives them through a small REPL.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/noteyou/noteyou/internal/auth"
	"github.com/noteyou/noteyou/internal/config"
	"github.com/noteyou/noteyou/internal/localstore"
	"github.com/noteyou/noteyou/internal/logging"
	"github.com/noteyou/noteyou/internal/migration"
	"github.com/noteyou/noteyou/internal/storage"
	"github.com/noteyou/noteyou/internal/workspace"
)

type App struct {
	config    *config.Config
	logger    logging.Logger
	store     *storage.Store
	auth      *auth.Service
	workspace *workspace.Service
	engine    *migration.Engine
	reader    *bufio.Reader
}

func NewApp(c *config.Config) (*App, error) {
	handler := slog.NewJSONHandler(os.Stderr, nil)
	logger := logging.NewSlogLogger(slog.New(handler))

	kv, err := localstore.New(c.DataDir)
	if err != nil {
		return nil, fmt.Errorf("data dir init error: %w", err)
	}

	store := storage.NewStore(logger,
		storage.NewSQLiteDriver(c.SQLiteDSN, logger),
		storage.NewRedisDriver(c.RedisAddr, c.RedisPassword, logger),
		storage.NewFileDriver(kv, logger),
	)

	authService := auth.NewService(store, kv, c.MinPasswordLen, logger)
	workspaceService := workspace.NewService(store, authService, logger)
	engine := migration.NewEngine(kv, store, authService, logger)

	return &App{
		config:    c,
		logger:    logger,
		store:     store,
		auth:      authService,
		workspace: workspaceService,
		engine:    engine,
		reader:    bufio.NewReader(os.Stdin),
	}, nil
}

// Startup brings the storage facade online, restores a persisted session,
// and runs the legacy-data migration when needed. Cleanup of the legacy keys
// is deferred by the configured grace period so a verification pass can still
// read them.
func (a *App) Startup(ctx context.Context) error {
	if err := a.store.Initialize(ctx); err != nil {
		return fmt.Errorf("storage init error: %w", err)
	}
	if err := a.store.AwaitReady(ctx); err != nil {
		return err
	}

	a.auth.Restore(ctx)

	if a.engine.CheckForMigration() {
		res := a.engine.Migrate(ctx)
		if !res.Success {
			a.logger.Error(ctx, "migration failed, legacy data kept for retry", "detail", res.Message)
			return nil
		}

		v := a.engine.VerifyMigration(ctx)
		a.logger.Info(ctx, "migration verified", "total", v.Total)

		time.AfterFunc(a.config.CleanupGracePeriod, func() {
			if err := a.engine.CleanupOldData(); err != nil {
				a.logger.Warn(ctx, "legacy data cleanup failed", "error", err)
			}
		})
	}

	return nil
}

func (a *App) isLoggedIn() bool {
	return a.auth.IsLoggedIn()
}

func (a *App) getStatus() string {
	u := a.auth.CurrentUser()
	if u == nil {
		return ""
	}
	return fmt.Sprintf("(%s)", u.Email)
}

func (a *App) Run(ctx context.Context) {
	if err := a.Startup(ctx); err != nil {
		a.logger.Error(ctx, "startup failed", "error", err)
		return
	}
	defer func() {
		if err := a.store.Close(); err != nil {
			a.logger.Warn(ctx, "closing storage", "error", err)
		}
	}()

	printlnFn("Welcome to NoteYou (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}
