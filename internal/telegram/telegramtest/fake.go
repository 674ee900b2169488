// Package telegramtest provides a scriptable in-memory telegram.Client.
package telegramtest

import (
	"context"
	"sync"

	"github.com/edgard/telebot/internal/telegram"
)

// Batch is one scripted getUpdates response.
type Batch struct {
	Updates []telegram.Update
	Err     error
}

// Sent records one SendMessage call.
type Sent struct {
	Token  string
	ChatID string
	Text   string
}

// FakeClient is a test double for telegram.Client. Scripted batches are
// returned in order; once they run out GetUpdates returns an empty batch.
type FakeClient struct {
	// Identities maps tokens to getMe results. Unknown tokens fail with
	// telegram.ErrInvalidToken unless GetMeErr is set.
	Identities map[string]telegram.Identity
	GetMeErr   error

	// UpdatesFunc, when set, replaces the scripted batches.
	UpdatesFunc func(ctx context.Context, token string, offset int64) ([]telegram.Update, error)

	// SendErr is returned by every SendMessage call when set.
	SendErr error

	mu      sync.Mutex
	batches []Batch
	offsets []int64
	sends   []Sent
	meCalls []string
	polls   chan int64
}

var _ telegram.Client = (*FakeClient)(nil)

// NewFakeClient creates an empty FakeClient.
func NewFakeClient() *FakeClient {
	return &FakeClient{
		Identities: make(map[string]telegram.Identity),
		polls:      make(chan int64, 256),
	}
}

// QueueUpdates scripts one successful batch.
func (f *FakeClient) QueueUpdates(updates ...telegram.Update) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, Batch{Updates: updates})
}

// QueueError scripts one failed fetch.
func (f *FakeClient) QueueError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, Batch{Err: err})
}

// GetMe implements telegram.Client.
func (f *FakeClient) GetMe(_ context.Context, token string) (telegram.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meCalls = append(f.meCalls, token)

	if f.GetMeErr != nil {
		return telegram.Identity{}, f.GetMeErr
	}
	identity, ok := f.Identities[token]
	if !ok {
		return telegram.Identity{}, telegram.ErrInvalidToken
	}
	return identity, nil
}

// GetUpdates implements telegram.Client.
func (f *FakeClient) GetUpdates(ctx context.Context, token string, offset int64) ([]telegram.Update, error) {
	f.mu.Lock()
	f.offsets = append(f.offsets, offset)
	fn := f.UpdatesFunc
	var next Batch
	scripted := false
	if fn == nil && len(f.batches) > 0 {
		next, f.batches = f.batches[0], f.batches[1:]
		scripted = true
	}
	f.mu.Unlock()

	select {
	case f.polls <- offset:
	default:
	}

	if fn != nil {
		return fn(ctx, token, offset)
	}
	if !scripted {
		return []telegram.Update{}, nil
	}
	if next.Err != nil {
		return []telegram.Update{}, next.Err
	}
	if next.Updates == nil {
		return []telegram.Update{}, nil
	}
	return next.Updates, nil
}

// SendMessage implements telegram.Client.
func (f *FakeClient) SendMessage(_ context.Context, token, chatID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, Sent{Token: token, ChatID: chatID, Text: text})
	if f.SendErr != nil {
		return &telegram.SendError{ChatID: chatID, Description: f.SendErr.Error(), Err: f.SendErr}
	}
	return nil
}

// Offsets returns the cursor passed to every GetUpdates call so far.
func (f *FakeClient) Offsets() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.offsets...)
}

// Sends returns every SendMessage call so far.
func (f *FakeClient) Sends() []Sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Sent(nil), f.sends...)
}

// GetMeCalls returns the tokens passed to GetMe so far.
func (f *FakeClient) GetMeCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.meCalls...)
}

// Polls delivers the offset of each GetUpdates call as it starts.
func (f *FakeClient) Polls() <-chan int64 {
	return f.polls
}

// Message builds an update carrying a private-chat message.
func Message(updateID, chatID int64, firstName, text string) telegram.Update {
	return telegram.Update{
		ID: updateID,
		Message: &telegram.Message{
			ID:   updateID,
			From: &telegram.User{ID: chatID, FirstName: firstName},
			Chat: &telegram.Chat{ID: chatID, Type: "private", FirstName: firstName},
			Text: text,
		},
	}
}
