// Package gemini generates bot profile copy with Google's Gemini API.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"google.golang.org/genai"

	"github.com/edgard/telebot/internal/config"
)

// ErrGeneration is the only error callers see from GenerateBotContent; the
// cause is logged.
var ErrGeneration = errors.New("не удалось сгенерировать контент")

// ErrDisabled is returned by NewClient when no API key is configured.
var ErrDisabled = errors.New("gemini API key is not configured")

// BotContent is generated profile copy.
type BotContent struct {
	Description    string `json:"description"`
	WelcomeMessage string `json:"welcomeMessage"`
}

// Client generates bot content.
type Client interface {
	GenerateBotContent(ctx context.Context, botName, niche string) (BotContent, error)
}

// generator is the part of *genai.Models the client uses.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type sdkClient struct {
	models        generator
	log           *slog.Logger
	contentConfig *genai.GenerateContentConfig
	modelName     string
	maxRetries    int
	retryDelay    time.Duration
}

// NewClient creates a Gemini client. It returns ErrDisabled without an API
// key.
func NewClient(ctx context.Context, cfg config.GeminiConfig, log *slog.Logger) (Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrDisabled
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	c := newClient(gi.Models, cfg, log)
	c.log.Info("Gemini client initialized", "model", cfg.ModelName)
	return c, nil
}

func newClient(models generator, cfg config.GeminiConfig, log *slog.Logger) *sdkClient {
	if log == nil {
		log = slog.Default()
	}
	if cfg.ModelName == "" {
		cfg.ModelName = config.DefaultGeminiModel
	}

	temperature := cfg.Temperature
	return &sdkClient{
		models: models,
		log:    log.With("component", "gemini_client"),
		contentConfig: &genai.GenerateContentConfig{
			Temperature:      &temperature,
			ResponseMIMEType: "application/json",
			ResponseSchema:   botContentSchema,
		},
		modelName:  cfg.ModelName,
		maxRetries: cfg.MaxRetries,
		retryDelay: time.Duration(cfg.RetryDelaySeconds) * time.Second,
	}
}

// GenerateBotContent asks the model for a description and a /start greeting.
func (c *sdkClient) GenerateBotContent(ctx context.Context, botName, niche string) (BotContent, error) {
	c.log.DebugContext(ctx, "Generating bot content", "bot_name", botName, "niche", niche)

	prompt := fmt.Sprintf(BotContentPrompt, botName, niche)
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	resp, err := c.generateContentWithRetries(ctx, contents)
	if err != nil {
		return BotContent{}, ErrGeneration
	}

	text, err := c.extractText(ctx, resp)
	if err != nil {
		return BotContent{}, ErrGeneration
	}

	var content BotContent
	if err := json.Unmarshal([]byte(text), &content); err != nil {
		c.log.ErrorContext(ctx, "Failed to parse bot content JSON", "error", err, "response_text", text)
		return BotContent{}, ErrGeneration
	}
	if strings.TrimSpace(content.Description) == "" && strings.TrimSpace(content.WelcomeMessage) == "" {
		c.log.ErrorContext(ctx, "Gemini returned empty bot content")
		return BotContent{}, ErrGeneration
	}

	if n := utf8.RuneCountInString(content.Description); n > MaxDescriptionLength {
		c.log.WarnContext(ctx, "Generated description exceeds requested length", "length", n)
	}
	if n := utf8.RuneCountInString(content.WelcomeMessage); n > MaxWelcomeMessageLength {
		c.log.WarnContext(ctx, "Generated welcome message exceeds requested length", "length", n)
	}
	return content, nil
}

func (c *sdkClient) generateContentWithRetries(ctx context.Context, contents []*genai.Content) (*genai.GenerateContentResponse, error) {
	var err error
	for i := 0; i <= c.maxRetries; i++ {
		var resp *genai.GenerateContentResponse
		resp, err = c.models.GenerateContent(ctx, c.modelName, contents, c.contentConfig)
		if err == nil {
			return resp, nil
		}

		c.log.WarnContext(ctx, "Gemini API call failed, checking for retry", "attempt", i+1, "max_retries", c.maxRetries, "error", err)

		var apiErr genai.APIError
		var apiErrPtr *genai.APIError
		code := 0
		switch {
		case errors.As(err, &apiErr):
			code = apiErr.Code
		case errors.As(err, &apiErrPtr):
			code = apiErrPtr.Code
		}

		if code != 500 && code != 503 {
			c.log.ErrorContext(ctx, "Gemini API call failed with non-retriable error", "error", err)
			return nil, fmt.Errorf("gemini API call failed: %w", err)
		}
		if i == c.maxRetries {
			break
		}

		c.log.InfoContext(ctx, "Retrying Gemini API call", "delay", c.retryDelay, "code", code)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.retryDelay):
		}
	}

	c.log.ErrorContext(ctx, "Gemini API call failed after max retries", "error", err)
	return nil, fmt.Errorf("gemini API call failed after %d retries: %w", c.maxRetries, err)
}

func (c *sdkClient) extractText(ctx context.Context, resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", errors.New("empty response")
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		reason := fmt.Sprintf("%v", resp.PromptFeedback.BlockReason)
		if resp.PromptFeedback.BlockReasonMessage != "" {
			reason = resp.PromptFeedback.BlockReasonMessage
		}
		c.log.ErrorContext(ctx, "Gemini request blocked", "reason", reason)
		return "", fmt.Errorf("blocked by safety filter: %s", reason)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		finishReason := "unknown"
		if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != genai.FinishReasonUnspecified {
			finishReason = fmt.Sprintf("%v", resp.Candidates[0].FinishReason)
		}
		c.log.WarnContext(ctx, "Gemini response missing candidates or content", "finish_reason", finishReason)
		return "", fmt.Errorf("no content, finish reason: %s", finishReason)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		c.log.WarnContext(ctx, "Gemini response text is empty")
		return "", errors.New("empty text")
	}
	return text, nil
}
