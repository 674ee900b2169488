package database

import (
	"path/filepath"
	"testing"

	"github.com/edgard/telebot/internal/logger"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { CloseDB(db) })
	return NewStore(db, logger.Discard())
}

func TestStore_PutGet(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := t.Context()

	if _, ok, err := s.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get(missing) = ok %v, err %v; want absent", ok, err)
	}

	if err := s.Put(ctx, "k", `[{"id":"1"}]`); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put(ctx, "k", `[]`); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}

	entry, ok, err := s.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("Get = ok %v, err %v", ok, err)
	}
	if entry.Value != "[]" {
		t.Errorf("value = %q, want []", entry.Value)
	}
	if entry.UpdatedAt.Before(entry.CreatedAt) {
		t.Errorf("updated_at %v before created_at %v", entry.UpdatedAt, entry.CreatedAt)
	}

	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Error("key still present after Delete")
	}
}

func TestStore_EmptyKey(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	if err := s.Put(t.Context(), "", "x"); err == nil {
		t.Error("Put with empty key should fail")
	}
	if _, _, err := s.Get(t.Context(), ""); err == nil {
		t.Error("Get with empty key should fail")
	}
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "reopen.db")
	db, err := NewDB(path)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	if err := NewSlot(NewStore(db, logger.Discard()), "telebot_manager_data").Save(t.Context(), []byte("payload")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	CloseDB(db)

	db, err = NewDB(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer CloseDB(db)

	data, ok, err := NewSlot(NewStore(db, logger.Discard()), "telebot_manager_data").Load(t.Context())
	if err != nil || !ok {
		t.Fatalf("Load = ok %v, err %v", ok, err)
	}
	if string(data) != "payload" {
		t.Errorf("data = %q, want payload", data)
	}
}

func TestSlot_LoadEmpty(t *testing.T) {
	t.Parallel()

	slot := NewSlot(newTestStore(t), "nothing")
	data, ok, err := slot.Load(t.Context())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ok || data != nil {
		t.Errorf("Load = %q, %v; want nil, false", data, ok)
	}
}

func TestRunSQLMaintenance(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	if err := s.Put(t.Context(), "k", "v"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.RunSQLMaintenance(t.Context()); err != nil {
		t.Fatalf("RunSQLMaintenance: %v", err)
	}
	if err := s.Ping(t.Context()); err != nil {
		t.Fatalf("Ping after maintenance: %v", err)
	}
}

func TestExtractDBNameFromPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"telebot.db", "telebot.db"},
		{"file:telebot.db", "telebot.db"},
		{"file:data/my%20bots.db?_pragma=busy_timeout(5000)", "data/my bots.db"},
	}
	for _, tt := range tests {
		if got := ExtractDBNameFromPath(tt.in); got != tt.want {
			t.Errorf("ExtractDBNameFromPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
