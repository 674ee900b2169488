package store

import "time"

// BotRecord is one managed bot as persisted in the durable slot.
type BotRecord struct {
	ID          string `json:"id"`
	Token       string `json:"token"`
	Name        string `json:"name"`
	Username    string `json:"username,omitempty"`
	Description string `json:"description,omitempty"`
	ChatID      string `json:"chatId,omitempty"`
	// CreatedAt is in unix milliseconds.
	CreatedAt int64 `json:"createdAt"`
}

// Created returns CreatedAt as a time.
func (r BotRecord) Created() time.Time {
	return time.UnixMilli(r.CreatedAt)
}

// HasChat reports whether a chat has been discovered for the bot.
func (r BotRecord) HasChat() bool {
	return r.ChatID != ""
}
