// Package editor stages changes to one bot record: it verifies the token,
// discovers the bot's chat and commits the draft to the store.
package editor

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/edgard/telebot/internal/config"
	"github.com/edgard/telebot/internal/discovery"
	"github.com/edgard/telebot/internal/metrics"
	"github.com/edgard/telebot/internal/store"
	"github.com/edgard/telebot/internal/telegram"
)

// Status is the result of the latest token lookup.
type Status string

const (
	StatusIdle         Status = "idle"
	StatusChecking     Status = "checking"
	StatusValid        Status = "valid"
	StatusInvalidToken Status = "invalid_token"
	StatusNetworkError Status = "network_error"
)

// Saver persists committed drafts.
type Saver interface {
	Save(ctx context.Context, rec store.BotRecord) (created bool, err error)
}

// Deps groups what an Editor needs.
type Deps struct {
	Client      telegram.Client
	Store       Saver
	Editor      config.EditorConfig
	Discovery   config.DiscoveryConfig
	TestMessage string
	Clock       clockwork.Clock
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

// Snapshot is a point-in-time view of an editing session.
type Snapshot struct {
	Draft           store.BotRecord `json:"draft"`
	IsNew           bool            `json:"isNew"`
	Lookup          Status          `json:"lookup"`
	Discovery       discovery.State `json:"discovery"`
	AwaitingMessage bool            `json:"awaitingMessage"`
	SenderName      string          `json:"senderName,omitempty"`
}

// Editor is one editing session. Methods are safe for concurrent use.
type Editor struct {
	deps   Deps
	log    *slog.Logger
	poller *discovery.Poller

	ctx    context.Context
	cancel context.CancelFunc

	// discoveryMu serializes poller restarts. It is never held together
	// with mu.
	discoveryMu sync.Mutex

	mu         sync.Mutex
	draft      store.BotRecord
	existing   *store.BotRecord
	status     Status
	generation uint64
	timer      clockwork.Timer
	senderName string
	closed     bool
}

// New opens a session editing a copy of existing, or a new bot when
// existing is nil. Discovery starts right away if the draft has a token and
// a name but no chat.
func New(deps Deps, existing *store.BotRecord) *Editor {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Editor.MinTokenLength <= 0 {
		deps.Editor.MinTokenLength = config.DefaultEditorMinTokenLength
	}
	if deps.TestMessage == "" {
		deps.TestMessage = config.DefaultTestMessage
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Editor{
		deps:   deps,
		log:    deps.Logger.With("component", "editor"),
		ctx:    ctx,
		cancel: cancel,
		status: StatusIdle,
		poller: discovery.New(deps.Client, deps.Discovery, deps.Logger,
			discovery.WithClock(deps.Clock), discovery.WithMetrics(deps.Metrics)),
	}
	if existing != nil {
		rec := *existing
		e.existing = &rec
		e.draft = rec
	}

	e.syncDiscovery()
	return e
}

// SetToken replaces the draft token and schedules an identity lookup after
// the debounce delay. A newer token supersedes any pending lookup.
func (e *Editor) SetToken(token string) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}

	e.draft.Token = token
	e.generation++
	gen := e.generation
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}

	switch {
	case len(token) < e.deps.Editor.MinTokenLength:
		if e.existing == nil {
			e.draft.Name = ""
			e.draft.Username = ""
		}
		e.status = StatusIdle
	case e.existing != nil && token == e.existing.Token && e.draft.Name != "":
		e.status = StatusIdle
	default:
		e.status = StatusChecking
		e.timer = e.deps.Clock.AfterFunc(e.deps.Editor.Debounce, func() {
			e.lookup(gen, token)
		})
	}
	e.mu.Unlock()

	e.syncDiscovery()
}

func (e *Editor) lookup(gen uint64, token string) {
	identity, err := e.deps.Client.GetMe(e.ctx, token)
	e.deps.Metrics.Lookup(err)

	e.mu.Lock()
	if gen != e.generation || e.closed {
		e.mu.Unlock()
		return
	}
	e.timer = nil
	if err != nil {
		e.draft.Name = ""
		e.draft.Username = ""
		e.status = StatusInvalidToken
		if errors.Is(err, telegram.ErrNetwork) {
			e.status = StatusNetworkError
		}
		e.log.Warn("Token lookup failed", "token", telegram.RedactToken(token), "error", err)
	} else {
		e.draft.Name = identity.FirstName
		e.draft.Username = identity.Username
		e.status = StatusValid
		e.log.Debug("Token verified", "username", identity.Username)
	}
	e.mu.Unlock()

	e.syncDiscovery()
}

// SetName overrides the display name.
func (e *Editor) SetName(name string) {
	e.mu.Lock()
	e.draft.Name = name
	e.mu.Unlock()
	e.syncDiscovery()
}

// SetDescription replaces the draft description.
func (e *Editor) SetDescription(description string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.draft.Description = description
}

// ClearChatID forgets the discovered chat so discovery runs again.
func (e *Editor) ClearChatID() {
	e.mu.Lock()
	e.draft.ChatID = ""
	e.senderName = ""
	e.mu.Unlock()
	e.syncDiscovery()
}

// Snapshot returns the current draft and session state.
func (e *Editor) Snapshot() Snapshot {
	state := e.poller.State()

	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		Draft:           e.draft,
		IsNew:           e.existing == nil,
		Lookup:          e.status,
		Discovery:       state,
		AwaitingMessage: state.Active() && e.draft.ChatID == "",
		SenderName:      e.senderName,
	}
}

// Commit validates the draft and saves it, assigning an id and creation
// time on first save.
func (e *Editor) Commit(ctx context.Context) (store.BotRecord, error) {
	e.mu.Lock()
	rec := e.draft
	e.mu.Unlock()

	if err := validateDraft(commitDraft{Name: rec.Name}); err != nil {
		return store.BotRecord{}, err
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt == 0 {
		rec.CreatedAt = e.deps.Clock.Now().UnixMilli()
	}

	created, err := e.deps.Store.Save(ctx, rec)
	if err != nil {
		return store.BotRecord{}, err
	}

	e.mu.Lock()
	e.draft.ID = rec.ID
	e.draft.CreatedAt = rec.CreatedAt
	saved := rec
	e.existing = &saved
	e.mu.Unlock()

	e.log.InfoContext(ctx, "Bot saved", "id", rec.ID, "created", created)
	return rec, nil
}

// SendTest sends the test message to the discovered chat.
func (e *Editor) SendTest(ctx context.Context) error {
	e.mu.Lock()
	token, chatID := e.draft.Token, e.draft.ChatID
	e.mu.Unlock()

	if err := validateDraft(sendDraft{Token: token, ChatID: chatID}); err != nil {
		return err
	}

	err := e.deps.Client.SendMessage(ctx, token, chatID, e.deps.TestMessage)
	e.deps.Metrics.Sent(err)
	return err
}

// Close cancels the pending lookup and any discovery. The session cannot
// be used afterwards.
func (e *Editor) Close() {
	e.mu.Lock()
	e.closed = true
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.mu.Unlock()

	e.cancel()
	e.discoveryMu.Lock()
	defer e.discoveryMu.Unlock()
	e.poller.Stop()
}

// Done is closed when the running discovery finishes.
func (e *Editor) Done() <-chan struct{} {
	return e.poller.Done()
}

// syncDiscovery runs the poller while the draft has a token and a name but
// no chat, and stops it otherwise.
func (e *Editor) syncDiscovery() {
	e.discoveryMu.Lock()
	defer e.discoveryMu.Unlock()

	e.mu.Lock()
	token := e.draft.Token
	want := !e.closed && token != "" && e.draft.Name != "" && e.draft.ChatID == ""
	e.mu.Unlock()

	running := e.poller.State().Active()
	switch {
	case want && running && e.poller.Token() == token:
	case want:
		e.poller.Start(e.ctx, token, e.onFound(token))
	case running:
		e.poller.Stop()
	}
}

func (e *Editor) onFound(token string) func(discovery.Result) {
	return func(res discovery.Result) {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.closed || e.draft.Token != token {
			return
		}
		e.draft.ChatID = res.ChatID
		e.senderName = res.SenderName
		e.log.Info("Chat attached to draft", "chat_id", res.ChatID, "sender", res.SenderName)
	}
}
