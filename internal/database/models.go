package database

import "time"

// Entry is one row of the key-value table. Values are opaque serialized
// payloads owned by the caller.
type Entry struct {
	Key       string    `db:"key"`
	Value     string    `db:"value"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
