package audit

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxEntries bounds the in-memory audit log.
const DefaultMaxEntries = 1000

// Entry records one translation attempt. SQL is empty when the query was
// not recognized.
type Entry struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenant_id"`
	Role       string    `json:"role"`
	Query      string    `json:"query"`
	SQL        string    `json:"sql,omitempty"`
	Translated bool      `json:"translated"`
	Timestamp  time.Time `json:"timestamp"`
}

// Log is an append-only bounded ring of translation attempts. State is
// process-local; nothing is persisted.
type Log struct {
	mu      sync.Mutex
	max     int
	entries []Entry
}

func NewLog(max int) *Log {
	if max <= 0 {
		max = DefaultMaxEntries
	}
	return &Log{max: max}
}

// Append records one entry, filling in ID and timestamp when absent. Each
// append past capacity drops exactly the single oldest entry.
func (l *Log) Append(e Entry) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, e)
	if len(l.entries) > l.max {
		l.entries = l.entries[1:]
	}
}

// Snapshot returns a copy of the log, oldest first.
func (l *Log) Snapshot() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
