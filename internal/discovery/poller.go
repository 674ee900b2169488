// Package discovery finds the chat a bot should talk to by polling the bot's
// pending updates until somebody writes to it.
package discovery

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/edgard/telebot/internal/config"
	"github.com/edgard/telebot/internal/metrics"
	"github.com/edgard/telebot/internal/telegram"
)

// Result is what a successful discovery reports.
type Result struct {
	ChatID     string `json:"chatId"`
	SenderName string `json:"senderName"`
}

// Poller runs at most one discovery activation at a time. Starting a new
// activation cancels the previous one and waits for it to exit.
type Poller struct {
	client  telegram.Client
	cfg     config.DiscoveryConfig
	clock   clockwork.Clock
	metrics *metrics.Metrics
	log     *slog.Logger

	// lifecycle serializes Start and Stop.
	lifecycle sync.Mutex

	mu      sync.Mutex
	current *activation
}

// Option customizes a Poller.
type Option func(*Poller)

// WithClock replaces the wall clock used for the waits between fetches.
func WithClock(clock clockwork.Clock) Option {
	return func(p *Poller) { p.clock = clock }
}

// WithMetrics records polling outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Poller) { p.metrics = m }
}

// New creates an idle Poller.
func New(client telegram.Client, cfg config.DiscoveryConfig, logger *slog.Logger, opts ...Option) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = config.DefaultDiscoveryInterval
	}
	if cfg.ErrorInterval <= 0 {
		cfg.ErrorInterval = config.DefaultDiscoveryErrorInterval
	}
	if cfg.ConfirmationText == "" {
		cfg.ConfirmationText = config.DefaultConfirmationText
	}

	p := &Poller{
		client: client,
		cfg:    cfg,
		clock:  clockwork.NewRealClock(),
		log:    logger.With("component", "discovery"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start begins polling for token. onFound is called at most once, on the
// polling goroutine, and never after the activation has been cancelled. It
// must not call Start or Stop.
func (p *Poller) Start(ctx context.Context, token string, onFound func(Result)) {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()

	p.stopCurrent()

	runCtx, cancel := context.WithCancel(ctx)
	act := &activation{
		poller:  p,
		token:   token,
		onFound: onFound,
		cancel:  cancel,
		done:    make(chan struct{}),
		state:   StatePolling,
		log:     p.log.With("token", telegram.RedactToken(token)),
	}

	p.mu.Lock()
	p.current = act
	p.mu.Unlock()

	p.metrics.PollerStarted()
	act.log.Debug("Chat discovery started")
	go act.run(runCtx)
}

// Stop cancels the running activation, if any, and waits for it to exit.
// It is safe to call repeatedly.
func (p *Poller) Stop() {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()
	p.stopCurrent()
}

func (p *Poller) stopCurrent() {
	p.mu.Lock()
	act := p.current
	p.mu.Unlock()
	if act == nil {
		return
	}
	act.stop()
	<-act.done
}

// State returns the state of the latest activation, or StateIdle.
func (p *Poller) State() State {
	act := p.latest()
	if act == nil {
		return StateIdle
	}
	return act.getState()
}

// Cursor returns the next update offset the latest activation will request.
func (p *Poller) Cursor() int64 {
	act := p.latest()
	if act == nil {
		return 0
	}
	act.mu.Lock()
	defer act.mu.Unlock()
	return act.cursor
}

// Token returns the token the latest activation polls for.
func (p *Poller) Token() string {
	act := p.latest()
	if act == nil {
		return ""
	}
	return act.token
}

// Done is closed once the latest activation reaches a terminal state and
// its goroutine has exited. Without an activation the channel is closed.
func (p *Poller) Done() <-chan struct{} {
	act := p.latest()
	if act == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return act.done
}

func (p *Poller) latest() *activation {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

type activation struct {
	poller  *Poller
	token   string
	onFound func(Result)
	cancel  context.CancelFunc
	done    chan struct{}
	log     *slog.Logger

	mu     sync.Mutex
	state  State
	cursor int64
}

func (a *activation) getState() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// advance moves to next unless the activation was cancelled.
func (a *activation) advance(next State) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == StateCancelled {
		return false
	}
	a.state = next
	return true
}

func (a *activation) stop() {
	a.mu.Lock()
	if !a.state.Terminal() {
		a.state = StateCancelled
	}
	a.mu.Unlock()
	a.cancel()
}

func (a *activation) cancelled(ctx context.Context) bool {
	if ctx.Err() != nil {
		a.stop()
		return true
	}
	return a.getState() == StateCancelled
}

func (a *activation) run(ctx context.Context) {
	p := a.poller
	defer close(a.done)
	defer p.metrics.PollerStopped()
	defer a.cancel()

	for {
		if a.cancelled(ctx) {
			a.log.Debug("Chat discovery cancelled")
			return
		}

		a.mu.Lock()
		offset := a.cursor
		a.mu.Unlock()

		updates, err := p.client.GetUpdates(ctx, a.token, offset)
		if a.cancelled(ctx) {
			a.log.Debug("Chat discovery cancelled during fetch")
			return
		}
		p.metrics.Poll(err)
		if err != nil {
			a.log.Debug("Failed to fetch updates", "error", err, "offset", offset)
		}

		if len(updates) > 0 {
			next, result, found := scan(updates)
			a.mu.Lock()
			a.cursor = next
			a.mu.Unlock()

			if found {
				a.report(ctx, result)
				return
			}
		}

		wait := p.cfg.Interval
		if err != nil {
			wait = p.cfg.ErrorInterval
		}
		select {
		case <-ctx.Done():
			a.stop()
			a.log.Debug("Chat discovery cancelled while waiting")
			return
		case <-p.clock.After(wait):
		}
	}
}

func (a *activation) report(ctx context.Context, result Result) {
	p := a.poller

	if !a.advance(StateFound) {
		return
	}
	p.metrics.Discovered()
	a.log.Info("Chat discovered", "chat_id", result.ChatID, "sender", result.SenderName)

	if !a.advance(StateConfirming) {
		return
	}
	if err := p.client.SendMessage(ctx, a.token, result.ChatID, p.cfg.ConfirmationText); err != nil {
		p.metrics.ConfirmationFailed()
		a.log.Warn("Failed to send discovery confirmation", "error", err, "chat_id", result.ChatID)
	}

	if !a.advance(StateReported) {
		return
	}
	if a.onFound != nil {
		a.onFound(result)
	}
}

// scan returns the cursor following updates and the first update that
// carries a message with a chat. The cursor moves past the batch even when
// nothing in it qualifies.
func scan(updates []telegram.Update) (int64, Result, bool) {
	next := updates[len(updates)-1].ID + 1

	for _, u := range updates {
		if u.Message == nil || u.Message.Chat == nil {
			continue
		}
		result := Result{ChatID: strconv.FormatInt(u.Message.Chat.ID, 10)}
		if u.Message.From != nil {
			result.SenderName = u.Message.From.FirstName
		}
		return next, result, true
	}
	return next, Result{}, false
}

// Await blocks until the chat is discovered, ctx ends or the activation is
// cancelled by other means. It drives a fresh activation on p.
func Await(ctx context.Context, p *Poller, token string) (Result, error) {
	found := make(chan Result, 1)
	p.Start(ctx, token, func(r Result) { found <- r })
	defer p.Stop()

	select {
	case r := <-found:
		return r, nil
	case <-p.Done():
		select {
		case r := <-found:
			return r, nil
		default:
		}
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		return Result{}, context.Canceled
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}
