package editor

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/edgard/telebot/internal/config"
	"github.com/edgard/telebot/internal/discovery"
	"github.com/edgard/telebot/internal/logger"
	"github.com/edgard/telebot/internal/store"
	"github.com/edgard/telebot/internal/telegram"
	"github.com/edgard/telebot/internal/telegram/telegramtest"
)

const (
	tokenA = "111111:AAAAAAAAAAAAAAAAAAAAAAAA"
	tokenB = "222222:BBBBBBBBBBBBBBBBBBBBBBBB"
)

type harness struct {
	client *telegramtest.FakeClient
	clock  *clockwork.FakeClock
	store  *store.Store
	slot   *store.MemorySlot
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	slot := store.NewMemorySlot(nil)
	s := store.New(slot, logger.Discard())
	if err := s.Hydrate(t.Context()); err != nil {
		t.Fatal(err)
	}
	client := telegramtest.NewFakeClient()
	client.Identities[tokenA] = telegram.Identity{ID: 111111, IsBot: true, FirstName: "Alpha Bot", Username: "alpha_bot"}
	client.Identities[tokenB] = telegram.Identity{ID: 222222, IsBot: true, FirstName: "Beta Bot", Username: "beta_bot"}
	return &harness{
		client: client,
		clock:  clockwork.NewFakeClock(),
		store:  s,
		slot:   slot,
	}
}

func (h *harness) open(t *testing.T, existing *store.BotRecord) *Editor {
	t.Helper()
	e := New(Deps{
		Client: h.client,
		Store:  h.store,
		Editor: config.EditorConfig{Debounce: 800 * time.Millisecond, MinTokenLength: 20},
		Discovery: config.DiscoveryConfig{
			Interval:         2 * time.Second,
			ErrorInterval:    3 * time.Second,
			ConfirmationText: "connected",
		},
		TestMessage: "test message",
		Clock:       h.clock,
		Logger:      logger.Discard(),
	}, existing)
	t.Cleanup(e.Close)
	return e
}

func (h *harness) fireDebounce(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(t.Context(), 2*time.Second)
	defer cancel()
	if err := h.clock.BlockUntilContext(ctx, 1); err != nil {
		t.Fatalf("no pending lookup: %v", err)
	}
	h.clock.Advance(800 * time.Millisecond)
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func lookupSettled(e *Editor) func() bool {
	return func() bool { return e.Snapshot().Lookup != StatusChecking }
}

func TestSetToken_OnlyLatestLookupRuns(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	e := h.open(t, nil)

	e.SetToken(tokenA)
	e.SetToken(tokenB)
	if got := e.Snapshot().Lookup; got != StatusChecking {
		t.Errorf("lookup = %s, want checking", got)
	}

	h.fireDebounce(t)
	eventually(t, "lookup", lookupSettled(e))

	snap := e.Snapshot()
	if snap.Lookup != StatusValid || snap.Draft.Name != "Beta Bot" || snap.Draft.Username != "beta_bot" {
		t.Errorf("snapshot = %+v", snap)
	}
	if calls := h.client.GetMeCalls(); len(calls) != 1 || calls[0] != tokenB {
		t.Errorf("getMe calls = %v, want only %s", calls, tokenB)
	}
}

func TestSetToken_ShortTokenClearsIdentity(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	e := h.open(t, nil)

	e.SetToken(tokenA)
	h.fireDebounce(t)
	eventually(t, "lookup", lookupSettled(e))

	e.SetToken("111111:AAA")
	snap := e.Snapshot()
	if snap.Draft.Name != "" || snap.Draft.Username != "" {
		t.Errorf("identity kept for short token: %+v", snap.Draft)
	}
	if snap.Lookup != StatusIdle {
		t.Errorf("lookup = %s, want idle", snap.Lookup)
	}
	if len(h.client.GetMeCalls()) != 1 {
		t.Errorf("short token triggered a lookup")
	}
}

func TestSetToken_ShortTokenKeepsExistingName(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	existing := &store.BotRecord{ID: "x", Token: tokenA, Name: "Alpha Bot", ChatID: "42", CreatedAt: 1}
	e := h.open(t, existing)

	e.SetToken("short")
	if got := e.Snapshot().Draft.Name; got != "Alpha Bot" {
		t.Errorf("name = %q, want kept for existing bot", got)
	}
}

func TestSetToken_UnchangedTokenSkipsLookup(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	existing := &store.BotRecord{ID: "x", Token: tokenA, Name: "Alpha Bot", ChatID: "42", CreatedAt: 1}
	e := h.open(t, existing)

	e.SetToken(tokenA)
	if got := e.Snapshot().Lookup; got != StatusIdle {
		t.Errorf("lookup = %s, want idle", got)
	}
	h.clock.Advance(time.Second)
	if len(h.client.GetMeCalls()) != 0 {
		t.Errorf("unchanged token triggered a lookup")
	}
}

func TestSetToken_LookupFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want Status
	}{
		{name: "rejected token", err: fmt.Errorf("%w: telegram getMe: unauthorized", telegram.ErrInvalidToken), want: StatusInvalidToken},
		{name: "transport failure", err: fmt.Errorf("%w: telegram getMe: dial tcp", telegram.ErrNetwork), want: StatusNetworkError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := newHarness(t)
			h.client.GetMeErr = tt.err
			e := h.open(t, &store.BotRecord{ID: "x", Token: tokenA, Name: "Alpha Bot", Username: "alpha_bot", ChatID: "42", CreatedAt: 1})

			e.SetToken(tokenB)
			h.fireDebounce(t)
			eventually(t, "lookup", lookupSettled(e))

			snap := e.Snapshot()
			if snap.Lookup != tt.want {
				t.Errorf("lookup = %s, want %s", snap.Lookup, tt.want)
			}
			if snap.Draft.Name != "" || snap.Draft.Username != "" {
				t.Errorf("identity not cleared: %+v", snap.Draft)
			}
			if e.Snapshot().Discovery.Active() {
				t.Error("discovery running without a verified name")
			}
		})
	}
}

func TestDiscoveryAttachesChat(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.client.QueueUpdates(telegramtest.Message(10, 4242, "Ann", "/start"))
	e := h.open(t, nil)

	e.SetToken(tokenA)
	h.fireDebounce(t)

	eventually(t, "chat discovery", func() bool { return e.Snapshot().Draft.ChatID != "" })
	<-e.Done()

	snap := e.Snapshot()
	if snap.Draft.ChatID != "4242" || snap.SenderName != "Ann" {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.AwaitingMessage {
		t.Error("still awaiting a message after discovery")
	}
	if snap.Discovery != discovery.StateReported {
		t.Errorf("discovery = %s, want reported", snap.Discovery)
	}
	sends := h.client.Sends()
	if len(sends) != 1 || sends[0].ChatID != "4242" || sends[0].Text != "connected" {
		t.Errorf("sends = %+v", sends)
	}
}

func TestExistingRecordWithoutChatStartsDiscovery(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	e := h.open(t, &store.BotRecord{ID: "x", Token: tokenA, Name: "Alpha Bot", CreatedAt: 1})

	snap := e.Snapshot()
	if !snap.AwaitingMessage {
		t.Errorf("snapshot = %+v, want awaiting message", snap)
	}
}

func TestClearChatIDRediscovers(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	e := h.open(t, &store.BotRecord{ID: "x", Token: tokenA, Name: "Alpha Bot", ChatID: "1", CreatedAt: 1})
	if e.Snapshot().AwaitingMessage {
		t.Fatal("discovery running for a bot that has a chat")
	}

	h.client.QueueUpdates(telegramtest.Message(3, 99, "Bo", "hi"))
	e.ClearChatID()

	eventually(t, "rediscovery", func() bool { return e.Snapshot().Draft.ChatID == "99" })
}

func TestTokenChangeStopsDiscovery(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	e := h.open(t, &store.BotRecord{ID: "x", Token: tokenA, Name: "Alpha Bot", CreatedAt: 1})
	if !e.Snapshot().AwaitingMessage {
		t.Fatal("discovery not running")
	}
	done := e.Done()

	e.SetToken("too-short")

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("discovery for the previous token still running")
	}
}

func TestCommit(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	e := h.open(t, nil)

	_, err := e.Commit(t.Context())
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "name" {
		t.Fatalf("Commit without name err = %v, want ValidationError on name", err)
	}

	e.SetToken(tokenA)
	h.fireDebounce(t)
	eventually(t, "lookup", lookupSettled(e))
	e.SetDescription("Магазин цветов")

	first, err := e.Commit(t.Context())
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if first.ID == "" || first.CreatedAt != h.clock.Now().UnixMilli() {
		t.Errorf("committed = %+v", first)
	}
	if first.Description != "Магазин цветов" || first.Name != "Alpha Bot" {
		t.Errorf("committed = %+v", first)
	}

	e.SetDescription("Новое описание")
	second, err := e.Commit(t.Context())
	if err != nil {
		t.Fatalf("second Commit: %v", err)
	}
	if second.ID != first.ID || second.CreatedAt != first.CreatedAt {
		t.Errorf("second commit changed identity: %+v vs %+v", second, first)
	}

	list := h.store.List()
	if len(list) != 1 || list[0].Description != "Новое описание" {
		t.Errorf("store = %+v", list)
	}
	if sel, ok := h.store.Selected(); !ok || sel.ID != first.ID {
		t.Errorf("selected = %+v, %v", sel, ok)
	}
	if snap := e.Snapshot(); snap.IsNew {
		t.Error("session still new after commit")
	}
}

func TestCommit_NameIsTheOnlyRequirement(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	e := h.open(t, nil)
	e.SetName("Draft Bot")

	rec, err := e.Commit(t.Context())
	if err != nil {
		t.Fatalf("Commit without token: %v", err)
	}
	if rec.Name != "Draft Bot" || rec.Token != "" || rec.ID == "" {
		t.Errorf("committed = %+v", rec)
	}
	if got, err := h.store.Get(rec.ID); err != nil || got != rec {
		t.Errorf("stored = %+v, %v", got, err)
	}
}

func TestSendTest(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	e := h.open(t, &store.BotRecord{ID: "x", Token: tokenA, Name: "Alpha Bot", CreatedAt: 1})

	err := e.SendTest(t.Context())
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "chatId" {
		t.Fatalf("SendTest without chat err = %v", err)
	}
	if !IsValidation(err) {
		t.Error("IsValidation = false")
	}

	withChat := h.open(t, &store.BotRecord{ID: "y", Token: tokenB, Name: "Beta Bot", ChatID: "77", CreatedAt: 1})
	if err := withChat.SendTest(t.Context()); err != nil {
		t.Fatalf("SendTest: %v", err)
	}
	sends := h.client.Sends()
	last := sends[len(sends)-1]
	if last != (telegramtest.Sent{Token: tokenB, ChatID: "77", Text: "test message"}) {
		t.Errorf("sent = %+v", last)
	}

	h.client.SendErr = errors.New("Bad Request: chat not found")
	var se *telegram.SendError
	if err := withChat.SendTest(t.Context()); !errors.As(err, &se) {
		t.Errorf("err = %v, want *telegram.SendError", err)
	}
}

func TestCloseCancelsPendingLookup(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	e := h.open(t, nil)

	e.SetToken(tokenA)
	e.Close()
	h.clock.Advance(time.Second)
	time.Sleep(20 * time.Millisecond)

	if calls := h.client.GetMeCalls(); len(calls) != 0 {
		t.Errorf("lookup ran after Close: %v", calls)
	}
	e.SetToken(tokenB)
	if e.Snapshot().Draft.Token != tokenA {
		t.Error("closed session accepted a token")
	}
}
