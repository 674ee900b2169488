package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Logger.Level != DefaultLogLevel {
		t.Errorf("Logger.Level = %q, want %q", cfg.Logger.Level, DefaultLogLevel)
	}
	if cfg.Database.StorageKey != DefaultStorageKey {
		t.Errorf("Database.StorageKey = %q, want %q", cfg.Database.StorageKey, DefaultStorageKey)
	}
	if cfg.Discovery.Interval != 2*time.Second {
		t.Errorf("Discovery.Interval = %v, want 2s", cfg.Discovery.Interval)
	}
	if cfg.Discovery.ErrorInterval != 3*time.Second {
		t.Errorf("Discovery.ErrorInterval = %v, want 3s", cfg.Discovery.ErrorInterval)
	}
	if cfg.Editor.Debounce != 800*time.Millisecond {
		t.Errorf("Editor.Debounce = %v, want 800ms", cfg.Editor.Debounce)
	}
	if cfg.Telegram.UpdatesLimit != 10 {
		t.Errorf("Telegram.UpdatesLimit = %d, want 10", cfg.Telegram.UpdatesLimit)
	}
	if cfg.GeminiEnabled() {
		t.Error("GeminiEnabled() = true without an API key")
	}
	task, ok := cfg.Scheduler.Tasks["sql_maintenance"]
	if !ok || !task.Enabled || task.Schedule == "" {
		t.Errorf("sql_maintenance task = %+v (present %v), want enabled with schedule", task, ok)
	}
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
logger:
  level: debug
  json: true
discovery:
  interval: 500ms
server:
  addr: 127.0.0.1:9999
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("TELEBOT_GEMINI_API_KEY", "secret")
	t.Setenv("TELEBOT_DISCOVERY_ERROR_INTERVAL", "7s")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Logger.Level != "debug" || !cfg.Logger.JSON {
		t.Errorf("Logger = %+v, want debug/json", cfg.Logger)
	}
	if cfg.Discovery.Interval != 500*time.Millisecond {
		t.Errorf("Discovery.Interval = %v, want 500ms", cfg.Discovery.Interval)
	}
	if cfg.Discovery.ErrorInterval != 7*time.Second {
		t.Errorf("Discovery.ErrorInterval = %v, want 7s", cfg.Discovery.ErrorInterval)
	}
	if cfg.Server.Addr != "127.0.0.1:9999" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if !cfg.GeminiEnabled() {
		t.Error("GeminiEnabled() = false with TELEBOT_GEMINI_API_KEY set")
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("logger:\n  level: verbose\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("LoadConfig succeeded with an invalid log level")
	}
	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("error %v does not wrap ErrConfiguration", err)
	}
}
