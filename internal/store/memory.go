package store

import (
	"context"
	"slices"
	"sync"
)

// MemorySlot is an in-process Slot, used by tests and dry runs.
type MemorySlot struct {
	mu   sync.Mutex
	data []byte
	ok   bool

	// SaveErr, when set, fails every Save.
	SaveErr error
	// LoadErr, when set, fails every Load.
	LoadErr error
}

// NewMemorySlot returns a slot preloaded with data, or an empty one when
// data is nil.
func NewMemorySlot(data []byte) *MemorySlot {
	return &MemorySlot{data: slices.Clone(data), ok: data != nil}
}

func (m *MemorySlot) Load(context.Context) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return nil, false, m.LoadErr
	}
	return slices.Clone(m.data), m.ok, nil
}

func (m *MemorySlot) Save(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.data = slices.Clone(data)
	m.ok = true
	return nil
}

// Bytes returns the last saved payload.
func (m *MemorySlot) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.data)
}
