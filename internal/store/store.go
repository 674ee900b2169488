// Package store keeps the list of managed bots in memory and mirrors every
// change to a durable slot.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

var (
	// ErrNotFound is returned when no record has the requested id.
	ErrNotFound = errors.New("bot not found")
	// ErrDuplicateID is returned when creating a record whose id is taken.
	ErrDuplicateID = errors.New("bot id already exists")
	// ErrNotHydrated is returned by mutations attempted before Hydrate.
	ErrNotHydrated = errors.New("store not hydrated")
	// ErrInvalidRecord is returned for records without an id.
	ErrInvalidRecord = errors.New("bot record has no id")
)

// Slot is the durable location holding the serialized record list.
type Slot interface {
	// Load returns the stored payload; ok is false when nothing was saved.
	Load(ctx context.Context) (data []byte, ok bool, err error)
	// Save replaces the stored payload.
	Save(ctx context.Context, data []byte) error
}

// Store holds the bot records and the current selection. All methods are
// safe for concurrent use.
type Store struct {
	slot Slot
	log  *slog.Logger

	mu       sync.RWMutex
	hydrated bool
	records  []BotRecord
	selected string
}

// New creates an empty Store over slot. Call Hydrate before mutating it.
func New(slot Slot, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		slot: slot,
		log:  logger.With("component", "store"),
	}
}

// Hydrate loads the persisted list once. An unreadable payload is logged
// and replaced by an empty list; a slot read error is returned and leaves
// the store unhydrated.
func (s *Store) Hydrate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hydrated {
		return nil
	}

	data, ok, err := s.slot.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load bots: %w", err)
	}

	records := []BotRecord{}
	if ok && len(data) > 0 {
		if err := json.Unmarshal(data, &records); err != nil {
			s.log.ErrorContext(ctx, "Failed to load bots", "error", err, "bytes", len(data))
			records = []BotRecord{}
		}
		if records == nil {
			records = []BotRecord{}
		}
	}

	s.records = records
	s.hydrated = true
	s.log.InfoContext(ctx, "Bots loaded", "count", len(records))
	return nil
}

// Hydrated reports whether Hydrate has completed.
func (s *Store) Hydrated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hydrated
}

// List returns copies of all records in insertion order. The result is
// never nil.
func (s *Store) List() []BotRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]BotRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Modify applies fn to the stored record with id under the store lock and
// persists the result when fn reports a change. fn must not call back into
// the Store.
func (s *Store) Modify(ctx context.Context, id string, fn func(rec *BotRecord) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hydrated {
		return ErrNotHydrated
	}
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	rec := s.records[i]
	if !fn(&rec) {
		return nil
	}
	rec.ID = id
	return s.update(ctx, rec)
}

// Get returns a copy of the record with id.
func (s *Store) Get(id string) (BotRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.index(id)
	if i < 0 {
		return BotRecord{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.records[i], nil
}

// Create appends rec and persists the list.
func (s *Store) Create(ctx context.Context, rec BotRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.create(ctx, rec)
}

// Update replaces the record with rec.ID and persists the list.
func (s *Store) Update(ctx context.Context, rec BotRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.update(ctx, rec)
}

// Save updates rec when its id is known and creates it otherwise, then
// selects it. created reports which of the two happened.
func (s *Store) Save(ctx context.Context, rec BotRecord) (created bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index(rec.ID) >= 0 {
		err = s.update(ctx, rec)
	} else {
		created = true
		err = s.create(ctx, rec)
	}
	if err != nil {
		return false, err
	}
	s.selected = rec.ID
	return created, nil
}

// Delete removes the record with id and clears the selection when it
// pointed at it.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hydrated {
		return ErrNotHydrated
	}
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	next := slices.Delete(slices.Clone(s.records), i, i+1)
	if err := s.persist(ctx, next); err != nil {
		return err
	}
	if s.selected == id {
		s.selected = ""
	}
	s.log.InfoContext(ctx, "Bot removed", "id", id)
	return nil
}

// Select marks id as the current bot. An empty id clears the selection.
func (s *Store) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" && s.index(id) < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.selected = id
	return nil
}

// Selected returns the selected record, if any.
func (s *Store) Selected() (BotRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.index(s.selected)
	if s.selected == "" || i < 0 {
		return BotRecord{}, false
	}
	return s.records[i], true
}

func (s *Store) create(ctx context.Context, rec BotRecord) error {
	if !s.hydrated {
		return ErrNotHydrated
	}
	if rec.ID == "" {
		return ErrInvalidRecord
	}
	if s.index(rec.ID) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateID, rec.ID)
	}

	next := append(slices.Clone(s.records), rec)
	if err := s.persist(ctx, next); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "Bot created", "id", rec.ID, "name", rec.Name)
	return nil
}

func (s *Store) update(ctx context.Context, rec BotRecord) error {
	if !s.hydrated {
		return ErrNotHydrated
	}
	i := s.index(rec.ID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, rec.ID)
	}

	next := slices.Clone(s.records)
	next[i] = rec
	if err := s.persist(ctx, next); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "Bot updated", "id", rec.ID, "name", rec.Name)
	return nil
}

// persist writes next to the slot and adopts it only on success.
func (s *Store) persist(ctx context.Context, next []BotRecord) error {
	if next == nil {
		next = []BotRecord{}
	}
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("failed to encode bots: %w", err)
	}
	if err := s.slot.Save(ctx, data); err != nil {
		s.log.ErrorContext(ctx, "Failed to persist bots", "error", err)
		return fmt.Errorf("failed to persist bots: %w", err)
	}
	s.records = next
	return nil
}

func (s *Store) index(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(s.records, func(r BotRecord) bool { return r.ID == id })
}
