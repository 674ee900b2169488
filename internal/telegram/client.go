package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/telebot/internal/config"
)

const maxResponseBytes = 10 << 20

// Client is the remote messaging surface used by the editor, the discovery
// poller and the dashboard. Every call is scoped by the bot token passed in.
type Client interface {
	// GetMe looks up the bot identity behind token.
	GetMe(ctx context.Context, token string) (Identity, error)

	// GetUpdates returns pending updates starting at offset without waiting
	// on the server. On failure it returns an empty, non-nil slice together
	// with the error, so a polling loop can carry on with the slice alone.
	GetUpdates(ctx context.Context, token string, offset int64) ([]Update, error)

	// SendMessage sends Markdown text to chatID. Failures are *SendError.
	SendMessage(ctx context.Context, token, chatID, text string) error
}

// Options configures NewClient.
type Options struct {
	BaseURL        string
	RequestTimeout time.Duration
	UpdatesLimit   int
	HTTPClient     *http.Client
}

// OptionsFromConfig builds client options from the telegram config section.
func OptionsFromConfig(cfg config.TelegramConfig) Options {
	return Options{
		BaseURL:        cfg.BaseURL,
		RequestTimeout: cfg.RequestTimeout,
		UpdatesLimit:   cfg.UpdatesLimit,
	}
}

type apiClient struct {
	baseURL string
	timeout time.Duration
	limit   int
	http    *http.Client
	log     *slog.Logger

	mu   sync.Mutex
	bots map[string]*bot.Bot
}

// NewClient creates a Bot API client.
func NewClient(opts Options, logger *slog.Logger) Client {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = config.DefaultTelegramBaseURL
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = config.DefaultTelegramRequestTimeout
	}
	if opts.UpdatesLimit <= 0 {
		opts.UpdatesLimit = config.DefaultTelegramUpdatesLimit
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.RequestTimeout}
	}

	return &apiClient{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		timeout: opts.RequestTimeout,
		limit:   opts.UpdatesLimit,
		http:    opts.HTTPClient,
		log:     logger.With("component", "telegram_client"),
		bots:    make(map[string]*bot.Bot),
	}
}

// botFor returns the cached go-telegram/bot instance for token.
func (c *apiClient) botFor(token string) (*bot.Bot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if b, ok := c.bots[token]; ok {
		return b, nil
	}
	b, err := newBot(token, c.baseURL, c.http, c.timeout)
	if err != nil {
		return nil, err
	}
	c.bots[token] = b
	return b, nil
}

// forget drops the cached bot for a token the API refused, so mistyped
// tokens do not accumulate.
func (c *apiClient) forget(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.bots, token)
}

func (c *apiClient) GetMe(ctx context.Context, token string) (Identity, error) {
	b, err := c.botFor(token)
	if err != nil {
		return Identity{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	user, err := b.GetMe(ctx)
	if err != nil {
		err = classify("getMe", token, err)
		if !errors.Is(err, ErrNetwork) {
			c.forget(token)
		}
		c.log.WarnContext(ctx, "Identity lookup failed", "token", RedactToken(token), "error", err)
		return Identity{}, err
	}

	identity := identityFromUser(user)
	c.log.DebugContext(ctx, "Identity lookup succeeded", "bot_id", identity.ID, "username", identity.Username)
	return identity, nil
}

// chatIDParam passes numeric ids as integers and @usernames as strings.
func chatIDParam(chatID string) any {
	if id, err := strconv.ParseInt(chatID, 10, 64); err == nil {
		return id
	}
	return chatID
}

func identityFromUser(u *models.User) Identity {
	if u == nil {
		return Identity{}
	}
	return Identity{
		ID:        u.ID,
		IsBot:     u.IsBot,
		FirstName: u.FirstName,
		Username:  u.Username,
	}
}

func (c *apiClient) GetUpdates(ctx context.Context, token string, offset int64) ([]Update, error) {
	updates, err := c.getUpdates(ctx, token, offset)
	if err != nil {
		c.log.DebugContext(ctx, "Polling error", "token", RedactToken(token), "offset", offset, "error", err)
		return []Update{}, err
	}
	return updates, nil
}

func (c *apiClient) getUpdates(ctx context.Context, token string, offset int64) ([]Update, error) {
	if err := checkToken(token); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	query := url.Values{}
	query.Set("offset", strconv.FormatInt(offset, 10))
	query.Set("limit", strconv.Itoa(c.limit))
	query.Set("timeout", "0")
	endpoint := c.baseURL + "/bot" + url.PathEscape(token) + "/getUpdates?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, classify("getUpdates", token, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classify("getUpdates", token, err)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	_ = resp.Body.Close()
	if err != nil {
		return nil, classify("getUpdates", token, err)
	}

	var out apiResponse[[]Update]
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, classify("getUpdates", token, fmt.Errorf("http %d: %w", resp.StatusCode, err))
	}
	if !out.OK {
		description := out.Description
		if description == "" {
			description = "failed to get updates"
		}
		return nil, &APIError{Method: "getUpdates", Code: out.ErrorCode, Description: description}
	}
	if out.Result == nil {
		return []Update{}, nil
	}
	return out.Result, nil
}

func (c *apiClient) SendMessage(ctx context.Context, token, chatID, text string) error {
	if chatID == "" {
		return &SendError{ChatID: chatID, Err: ErrEmptyChatID}
	}

	b, err := c.botFor(token)
	if err != nil {
		return &SendError{ChatID: chatID, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, err = b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatIDParam(chatID),
		Text:      text,
		ParseMode: models.ParseModeMarkdownV1,
	})
	if err != nil {
		err = classify("sendMessage", token, err)
		sendErr := &SendError{ChatID: chatID, Err: err}
		var cause *redactedError
		if !errors.Is(err, ErrNetwork) && errors.As(err, &cause) {
			sendErr.Description = cause.Error()
		}
		c.log.WarnContext(ctx, "Send message failed", "token", RedactToken(token), "chat_id", chatID, "error", err)
		return sendErr
	}

	c.log.DebugContext(ctx, "Message sent", "token", RedactToken(token), "chat_id", chatID)
	return nil
}
