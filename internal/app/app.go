// Package app wires the telebot components together and runs the dashboard
// server alongside the scheduler.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/edgard/telebot/internal/app/tasks"
	"github.com/edgard/telebot/internal/config"
	"github.com/edgard/telebot/internal/dashboard"
	"github.com/edgard/telebot/internal/database"
	"github.com/edgard/telebot/internal/discovery"
	"github.com/edgard/telebot/internal/editor"
	"github.com/edgard/telebot/internal/gemini"
	"github.com/edgard/telebot/internal/metrics"
	"github.com/edgard/telebot/internal/store"
	"github.com/edgard/telebot/internal/telegram"
)

// App holds the long-lived components shared by every command.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	DB        *sqlx.DB
	KV        database.Store
	Bots      *store.Store
	Client    telegram.Client
	Generator gemini.Client
	Metrics   *metrics.Metrics
	Clock     clockwork.Clock

	log *slog.Logger
}

// New opens the database, loads the stored bots and builds the remote
// clients. A missing Gemini API key only disables content generation.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "app")

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	kv := database.NewStore(db, logger)

	bots := store.New(database.NewSlot(kv, cfg.Database.StorageKey), logger)
	if err := bots.Hydrate(ctx); err != nil {
		database.CloseDB(db)
		return nil, err
	}

	var generator gemini.Client
	if cfg.GeminiEnabled() {
		generator, err = gemini.NewClient(ctx, cfg.Gemini, logger)
		if err != nil {
			database.CloseDB(db)
			return nil, fmt.Errorf("failed to create gemini client: %w", err)
		}
	} else {
		log.Info("Gemini API key not set, content generation disabled")
	}

	return &App{
		Config:    cfg,
		Logger:    logger,
		DB:        db,
		KV:        kv,
		Bots:      bots,
		Client:    telegram.NewClient(telegram.OptionsFromConfig(cfg.Telegram), logger),
		Generator: generator,
		Metrics:   metrics.New(),
		Clock:     clockwork.NewRealClock(),
		log:       log,
	}, nil
}

// Close releases the database.
func (a *App) Close() {
	database.CloseDB(a.DB)
}

// NewEditor opens an editing session for existing, or for a new bot.
func (a *App) NewEditor(existing *store.BotRecord) *editor.Editor {
	return editor.New(editor.Deps{
		Client:      a.Client,
		Store:       a.Bots,
		Editor:      a.Config.Editor,
		Discovery:   a.Config.Discovery,
		TestMessage: a.Config.Messages.Test,
		Clock:       a.Clock,
		Metrics:     a.Metrics,
		Logger:      a.Logger,
	}, existing)
}

// NewPoller creates a standalone discovery poller.
func (a *App) NewPoller() *discovery.Poller {
	return discovery.New(a.Client, a.Config.Discovery, a.Logger,
		discovery.WithClock(a.Clock), discovery.WithMetrics(a.Metrics))
}

// Dashboard builds the HTTP API server.
func (a *App) Dashboard() *dashboard.Server {
	return dashboard.New(dashboard.Deps{
		Store:        a.Bots,
		Client:       a.Client,
		Generator:    a.Generator,
		NewEditor:    a.NewEditor,
		HelloMessage: a.Config.Messages.Hello,
		Metrics:      a.Metrics,
		Logger:       a.Logger,
	})
}

// Serve runs the dashboard and the scheduler until ctx is cancelled or one
// of them fails.
func (a *App) Serve(ctx context.Context) error {
	taskMap := tasks.RegisterAllTasks(tasks.TaskDeps{
		Logger: a.Logger,
		DB:     a.KV,
		Bots:   a.Bots,
		Client: a.Client,
	})
	scheduler, err := NewScheduler(a.Logger, &a.Config.Scheduler, taskMap)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", a.Config.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Config.Server.Addr, err)
	}

	dash := a.Dashboard()
	defer dash.Close()

	srv := &http.Server{
		Handler:           dash.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.log.Info("Dashboard listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("dashboard server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.Config.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.log.Error("Error shutting down dashboard", "error", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := scheduler.Start(gCtx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		<-gCtx.Done()
		if err := scheduler.Stop(); err != nil {
			a.log.Error("Error stopping scheduler", "error", err)
		}
		return nil
	})

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		a.log.Error("Stopped due to error", "error", err)
		return err
	}
	a.log.Info("Stopped gracefully")
	return nil
}
