// Package tasks implements the scheduled maintenance tasks.
package tasks

import (
	"log/slog"

	"github.com/edgard/telebot/internal/database"
	"github.com/edgard/telebot/internal/store"
	"github.com/edgard/telebot/internal/telegram"
)

// TaskDeps contains the dependencies shared by scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	DB     database.Store
	Bots   *store.Store
	Client telegram.Client
}
