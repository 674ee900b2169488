package gemini

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"google.golang.org/genai"

	"github.com/edgard/telebot/internal/config"
	"github.com/edgard/telebot/internal/logger"
)

type fakeModels struct {
	mu        sync.Mutex
	responses []*genai.GenerateContentResponse
	errs      []error
	calls     int
	prompts   []string
	configs   []*genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(_ context.Context, _ string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.prompts = append(f.prompts, contents[0].Parts[0].Text)
	}
	f.configs = append(f.configs, cfg)

	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	if err != nil {
		return nil, err
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return f.responses[len(f.responses)-1], nil
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      &genai.Content{Parts: []*genai.Part{{Text: text}}, Role: genai.RoleModel},
			FinishReason: genai.FinishReasonStop,
		}},
	}
}

func newTestClient(models generator, retries int) *sdkClient {
	return newClient(models, config.GeminiConfig{
		ModelName:  "gemini-2.5-flash",
		MaxRetries: retries,
	}, logger.Discard())
}

func TestGenerateBotContent(t *testing.T) {
	t.Parallel()

	models := &fakeModels{responses: []*genai.GenerateContentResponse{
		textResponse(`{"description":"Свежие цветы с доставкой","welcomeMessage":"Привет! Я помогу выбрать букет."}`),
	}}
	c := newTestClient(models, 0)

	got, err := c.GenerateBotContent(t.Context(), "Flower Bot", "цветочный магазин")
	if err != nil {
		t.Fatalf("GenerateBotContent: %v", err)
	}
	want := BotContent{Description: "Свежие цветы с доставкой", WelcomeMessage: "Привет! Я помогу выбрать букет."}
	if got != want {
		t.Errorf("content = %+v, want %+v", got, want)
	}

	if !strings.Contains(models.prompts[0], `Имя бота: "Flower Bot"`) || !strings.Contains(models.prompts[0], `Тематика/Ниша: "цветочный магазин"`) {
		t.Errorf("prompt missing inputs:\n%s", models.prompts[0])
	}
	if cfg := models.configs[0]; cfg.ResponseMIMEType != "application/json" || cfg.ResponseSchema == nil {
		t.Errorf("JSON mode not requested: %+v", cfg)
	}
}

func TestGenerateBotContent_RetriesServerErrors(t *testing.T) {
	t.Parallel()

	models := &fakeModels{
		errs: []error{
			genai.APIError{Code: 503, Message: "overloaded"},
			genai.APIError{Code: 500, Message: "internal"},
		},
		responses: []*genai.GenerateContentResponse{
			nil, nil,
			textResponse(`{"description":"d","welcomeMessage":"w"}`),
		},
	}
	c := newTestClient(models, 2)

	if _, err := c.GenerateBotContent(t.Context(), "Bot", "niche"); err != nil {
		t.Fatalf("GenerateBotContent: %v", err)
	}
	if models.calls != 3 {
		t.Errorf("calls = %d, want 3", models.calls)
	}
}

func TestGenerateBotContent_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		models    *fakeModels
		retries   int
		wantCalls int
	}{
		{
			name:      "client error is not retried",
			models:    &fakeModels{errs: []error{genai.APIError{Code: 400, Message: "bad"}}},
			retries:   3,
			wantCalls: 1,
		},
		{
			name: "retries exhausted",
			models: &fakeModels{errs: []error{
				genai.APIError{Code: 503}, genai.APIError{Code: 503}, genai.APIError{Code: 503},
			}},
			retries:   2,
			wantCalls: 3,
		},
		{
			name:      "transport error",
			models:    &fakeModels{errs: []error{errors.New("dial tcp: no route to host")}},
			wantCalls: 1,
		},
		{
			name:      "not JSON",
			models:    &fakeModels{responses: []*genai.GenerateContentResponse{textResponse("Вот ваш текст")}},
			wantCalls: 1,
		},
		{
			name:      "empty object",
			models:    &fakeModels{responses: []*genai.GenerateContentResponse{textResponse(`{}`)}},
			wantCalls: 1,
		},
		{
			name:      "no candidates",
			models:    &fakeModels{responses: []*genai.GenerateContentResponse{{}}},
			wantCalls: 1,
		},
		{
			name: "blocked prompt",
			models: &fakeModels{responses: []*genai.GenerateContentResponse{{
				PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: genai.BlockedReasonSafety},
			}}},
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.models.responses == nil {
				tt.models.responses = []*genai.GenerateContentResponse{nil}
			}
			c := newTestClient(tt.models, tt.retries)

			_, err := c.GenerateBotContent(t.Context(), "Bot", "niche")
			if !errors.Is(err, ErrGeneration) {
				t.Errorf("err = %v, want ErrGeneration", err)
			}
			if tt.models.calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", tt.models.calls, tt.wantCalls)
			}
		})
	}
}

func TestNewClient_RequiresKey(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(t.Context(), config.GeminiConfig{ModelName: "m"}, logger.Discard()); !errors.Is(err, ErrDisabled) {
		t.Errorf("err = %v, want ErrDisabled", err)
	}
}
