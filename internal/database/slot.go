package database

import "context"

// Slot binds a Store to a single key, matching the load/save contract of the
// bot record store.
type Slot struct {
	store Store
	key   string
}

// NewSlot returns the slot stored under key.
func NewSlot(store Store, key string) *Slot {
	return &Slot{store: store, key: key}
}

// Key returns the slot key.
func (s *Slot) Key() string {
	return s.key
}

// Load returns the stored bytes. ok is false when nothing was saved yet.
func (s *Slot) Load(ctx context.Context) ([]byte, bool, error) {
	entry, ok, err := s.store.Get(ctx, s.key)
	if err != nil || !ok {
		return nil, ok, err
	}
	return []byte(entry.Value), true, nil
}

// Save replaces the stored bytes.
func (s *Slot) Save(ctx context.Context, data []byte) error {
	return s.store.Put(ctx, s.key, string(data))
}
