package telegram

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-telegram/bot"
)

// newBot creates a go-telegram/bot instance for one token. The getMe check
// that bot.New performs by default is skipped; GetMe is called explicitly.
func newBot(token, baseURL string, httpClient *http.Client, timeout time.Duration) (*bot.Bot, error) {
	if err := checkToken(token); err != nil {
		return nil, err
	}

	b, err := bot.New(token,
		bot.WithSkipGetMe(),
		bot.WithServerURL(baseURL),
		bot.WithHTTPClient(timeout, httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create telegram bot: %w", ErrInvalidToken, err)
	}
	return b, nil
}

// checkToken rejects tokens that are empty or that would change the
// request URL they are placed in.
func checkToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("%w: telegram bot token cannot be empty", ErrInvalidToken)
	}
	if strings.ContainsAny(token, "/?# \t\r\n") {
		return fmt.Errorf("%w: telegram bot token contains invalid characters", ErrInvalidToken)
	}
	return nil
}

// RedactToken keeps the bot id part of a token and hides the secret,
// so "123456:ABC..." logs as "123456:***".
func RedactToken(token string) string {
	if token == "" {
		return ""
	}
	if idx := strings.IndexByte(token, ':'); idx >= 0 {
		return token[:idx] + ":***"
	}
	if len(token) > 4 {
		return token[:4] + "***"
	}
	return "***"
}
