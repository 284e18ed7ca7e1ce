// Package memstore keeps the appliance's spoken memories: daily answers,
// chat turns and anything else worth recalling later.
//
// Entries are append-only snapshots with increasing numeric IDs, stored as
// msgpack values in a kv.Store together with a per-day index so the diary
// can browse by calendar date.
package memstore

import (
	"errors"
	"time"
)

// ErrNotFound is returned when an entry does not exist.
var ErrNotFound = errors.New("memstore: entry not found")

// Mode tags used by the appliance.
const (
	ModeDaily    = "daily"
	ModeChat     = "chat"
	ModeDiary    = "diary"
	ModeReminder = "reminder"
)

// Entry is one stored memory. Values returned by the store are copies.
type Entry struct {
	ID        uint64   `msgpack:"id" json:"id"`
	Content   string   `msgpack:"content" json:"content"`
	Mode      string   `msgpack:"mode" json:"mode"`
	Tags      []string `msgpack:"tags,omitempty" json:"tags,omitempty"`
	Timestamp int64    `msgpack:"ts" json:"-"` // Unix nanoseconds
}

// Time returns the entry creation time in the local zone.
func (e Entry) Time() time.Time {
	return time.Unix(0, e.Timestamp)
}

// Day truncates t to its calendar date in t's location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
