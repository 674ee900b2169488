package config

import "time"

// Default values for configuration
const (
	DefaultLogLevel = "info"

	DefaultDBPath     = "telebot.db"
	DefaultStorageKey = "telebot_manager_data"

	DefaultTelegramBaseURL        = "https://api.telegram.org"
	DefaultTelegramRequestTimeout = 15 * time.Second
	DefaultTelegramUpdatesLimit   = 10

	DefaultDiscoveryInterval      = 2 * time.Second
	DefaultDiscoveryErrorInterval = 3 * time.Second
	DefaultConfirmationText       = "🤖 Система управления: Chat ID успешно подключен!"

	DefaultEditorDebounce       = 800 * time.Millisecond
	DefaultEditorMinTokenLength = 20

	DefaultTestMessage  = "*Тестовое сообщение*\n\nВаш бот работает исправно!"
	DefaultHelloMessage = "👋 Привет! Я на связи."

	DefaultGeminiModel             = "gemini-2.5-flash"
	DefaultGeminiTemperature       = 1.0
	DefaultGeminiMaxRetries        = 2
	DefaultGeminiRetryDelaySeconds = 2

	DefaultServerAddr            = "127.0.0.1:8080"
	DefaultServerShutdownTimeout = 10 * time.Second
)

var defaults = map[string]any{
	"logger.level": DefaultLogLevel,
	"logger.json":  false,

	"database.path":        DefaultDBPath,
	"database.storage_key": DefaultStorageKey,

	"telegram.base_url":        DefaultTelegramBaseURL,
	"telegram.request_timeout": DefaultTelegramRequestTimeout,
	"telegram.updates_limit":   DefaultTelegramUpdatesLimit,

	"discovery.interval":          DefaultDiscoveryInterval,
	"discovery.error_interval":    DefaultDiscoveryErrorInterval,
	"discovery.confirmation_text": DefaultConfirmationText,

	"editor.debounce":         DefaultEditorDebounce,
	"editor.min_token_length": DefaultEditorMinTokenLength,

	"messages.test":  DefaultTestMessage,
	"messages.hello": DefaultHelloMessage,

	"gemini.api_key":             "",
	"gemini.model_name":          DefaultGeminiModel,
	"gemini.temperature":         DefaultGeminiTemperature,
	"gemini.max_retries":         DefaultGeminiMaxRetries,
	"gemini.retry_delay_seconds": DefaultGeminiRetryDelaySeconds,

	"server.addr":             DefaultServerAddr,
	"server.shutdown_timeout": DefaultServerShutdownTimeout,

	"scheduler.tasks.sql_maintenance.enabled":   true,
	"scheduler.tasks.sql_maintenance.schedule":  "0 0 4 * * *",
	"scheduler.tasks.identity_refresh.enabled":  false,
	"scheduler.tasks.identity_refresh.schedule": "0 0 * * * *",
}
