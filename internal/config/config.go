// Package config provides configuration loading, validation, and management
// for telebot. It reads an optional YAML file, TELEBOT_* environment
// variables and a local .env file on top of built-in defaults.
package config

import "time"

// Config is the root configuration for every telebot component.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Discovery DiscoveryConfig `mapstructure:"discovery"`
	Editor    EditorConfig    `mapstructure:"editor"`
	Messages  MessagesConfig  `mapstructure:"messages"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Server    ServerConfig    `mapstructure:"server"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// LoggerConfig controls the slog handler.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// DatabaseConfig points at the sqlite file holding the durable key-value slot.
type DatabaseConfig struct {
	Path       string `mapstructure:"path"        validate:"required"`
	StorageKey string `mapstructure:"storage_key" validate:"required"`
}

// TelegramConfig configures the Bot API client.
type TelegramConfig struct {
	BaseURL        string        `mapstructure:"base_url"        validate:"required,url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"min=1s,max=5m"`
	UpdatesLimit   int           `mapstructure:"updates_limit"   validate:"min=1,max=100"`
}

// DiscoveryConfig configures the chat discovery poller.
type DiscoveryConfig struct {
	Interval         time.Duration `mapstructure:"interval"          validate:"min=100ms,max=1m"`
	ErrorInterval    time.Duration `mapstructure:"error_interval"    validate:"min=100ms,max=5m"`
	ConfirmationText string        `mapstructure:"confirmation_text" validate:"required"`
}

// EditorConfig configures draft editing.
type EditorConfig struct {
	Debounce       time.Duration `mapstructure:"debounce"         validate:"min=0,max=10s"`
	MinTokenLength int           `mapstructure:"min_token_length" validate:"min=1"`
}

// MessagesConfig holds user-facing texts sent to bots' chats.
type MessagesConfig struct {
	Test  string `mapstructure:"test"  validate:"required"`
	Hello string `mapstructure:"hello" validate:"required"`
}

// GeminiConfig configures the content generator. An empty APIKey disables it.
type GeminiConfig struct {
	APIKey            string  `mapstructure:"api_key"`
	ModelName         string  `mapstructure:"model_name"          validate:"required"`
	Temperature       float32 `mapstructure:"temperature"         validate:"min=0,max=2"`
	MaxRetries        int     `mapstructure:"max_retries"         validate:"min=0,max=10"`
	RetryDelaySeconds int     `mapstructure:"retry_delay_seconds" validate:"min=0,max=60"`
}

// ServerConfig configures the local dashboard HTTP server.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"             validate:"required,hostname_port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=1s,max=1m"`
}

// SchedulerConfig lists scheduled tasks by name.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`
}

// TaskConfig enables a scheduled task on a cron schedule.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}
