// Package telegram is the token-scoped Telegram Bot API client used to look up
// a bot's identity, fetch pending updates with a cursor, and send messages.
package telegram

import "strconv"

// Identity is the subset of getMe's User object that telebot keeps.
type Identity struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	Username  string `json:"username,omitempty"`
}

// Update is one unit of incoming activity returned by getUpdates.
// Only the message payload is decoded; edits and other update kinds leave
// Message nil.
type Update struct {
	ID      int64    `json:"update_id"`
	Message *Message `json:"message,omitempty"`
}

// Message is an incoming message. Chat and From are pointers because the
// Bot API omits them for some message kinds.
type Message struct {
	ID   int64  `json:"message_id"`
	From *User  `json:"from,omitempty"`
	Chat *Chat  `json:"chat,omitempty"`
	Date int64  `json:"date"`
	Text string `json:"text,omitempty"`
}

// User is the sender of a message.
type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	Username  string `json:"username,omitempty"`
}

// Chat identifies the conversation a message belongs to.
type Chat struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"`
	FirstName string `json:"first_name,omitempty"`
}

// ChatID returns the chat identifier in the string form stored on records.
func (c Chat) ChatID() string {
	return strconv.FormatInt(c.ID, 10)
}

// apiResponse is the Bot API envelope {ok, result, description}.
type apiResponse[T any] struct {
	OK          bool   `json:"ok"`
	Result      T      `json:"result"`
	Description string `json:"description,omitempty"`
	ErrorCode   int    `json:"error_code,omitempty"`
}
