package alerts

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const DefaultMaxEntries = 500

// Alert is one anomaly the gateway flagged and dispatched notifications for.
type Alert struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Severity  string    `json:"severity"`
	Message   string    `json:"message"`
	Score     float64   `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

// Feed is a bounded in-memory list of recent alerts, newest last.
type Feed struct {
	mu     sync.Mutex
	max    int
	alerts []Alert
}

func NewFeed(max int) *Feed {
	if max <= 0 {
		max = DefaultMaxEntries
	}
	return &Feed{max: max}
}

func (f *Feed) Append(a Alert) Alert {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.alerts = append(f.alerts, a)
	if len(f.alerts) > f.max {
		f.alerts = f.alerts[1:]
	}
	return a
}

// Snapshot returns a copy, oldest first. Never nil, so it encodes as [].
func (f *Feed) Snapshot() []Alert {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Alert, len(f.alerts))
	copy(out, f.alerts)
	return out
}

func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.alerts)
}
