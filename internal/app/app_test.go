package app

import (
	"context"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/edgard/telebot/internal/app/tasks"
	"github.com/edgard/telebot/internal/config"
	"github.com/edgard/telebot/internal/logger"
	"github.com/edgard/telebot/internal/store"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	cfg.Database.Path = filepath.Join(t.TempDir(), "app.db")
	cfg.Server.Addr = "127.0.0.1:0"
	cfg.Server.ShutdownTimeout = time.Second
	cfg.Gemini.APIKey = ""
	return cfg
}

func TestNew(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	a, err := New(t.Context(), cfg, logger.Discard())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	if !a.Bots.Hydrated() {
		t.Error("bots not hydrated")
	}
	if a.Generator != nil {
		t.Error("generator enabled without API key")
	}

	rec := store.BotRecord{ID: "a", Token: "1:a", Name: "A", CreatedAt: 1}
	if err := a.Bots.Create(t.Context(), rec); err != nil {
		t.Fatal(err)
	}
	a.Close()

	reopened, err := New(t.Context(), cfg, logger.Discard())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if got, err := reopened.Bots.Get("a"); err != nil || got != rec {
		t.Errorf("reloaded = %+v, %v", got, err)
	}
}

func TestServe_StopsOnCancel(t *testing.T) {
	t.Parallel()

	a, err := New(t.Context(), testConfig(t), logger.Discard())
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(t.Context())
	errc := make(chan error, 1)
	go func() { errc <- a.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		if err != nil {
			t.Errorf("Serve = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not stop")
	}
}

func TestServe_ListenError(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Server.Addr = "127.0.0.1:99999"
	a, err := New(t.Context(), cfg, logger.Discard())
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	if err := a.Serve(t.Context()); err == nil {
		t.Error("Serve should fail on an unusable address")
	}
}

func TestScheduler_SchedulesEnabledTasks(t *testing.T) {
	t.Parallel()

	noop := func(context.Context) error { return nil }
	taskMap := map[string]tasks.ScheduledTaskFunc{
		"enabled":        noop,
		"disabled":       noop,
		"empty_schedule": noop,
	}
	cfg := &config.SchedulerConfig{Tasks: map[string]config.TaskConfig{
		"enabled":        {Enabled: true, Schedule: "0 0 4 * * *"},
		"disabled":       {Enabled: false, Schedule: "0 0 4 * * *"},
		"empty_schedule": {Enabled: true},
		"unregistered":   {Enabled: true, Schedule: "0 0 4 * * *"},
		"bad_cron":       {Enabled: true, Schedule: "not a cron"},
	}}
	taskMap["bad_cron"] = noop

	s, err := NewScheduler(logger.Discard(), cfg, taskMap)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Start(t.Context()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Start(t.Context()); err == nil {
		t.Error("second Start should fail")
	}

	if got := s.JobNames(); !slices.Equal(got, []string{"enabled"}) {
		t.Errorf("jobs = %v, want [enabled]", got)
	}

	if err := s.Stop(); err != nil {
		t.Errorf("Stop: %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Errorf("second Stop: %v", err)
	}
}
