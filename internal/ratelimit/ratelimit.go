package ratelimit

import (
	"sync"
	"time"
)

const (
	DefaultLimit  = 100
	DefaultWindow = time.Minute
)

// AnonymousKey is charged when neither a tenant nor a client address is known.
const AnonymousKey = "anonymous"

type window struct {
	mu    sync.Mutex
	start time.Time
	count int
}

// Limiter is an in-memory fixed-window request counter, one window per key.
// Keys are never purged; Keys() exposes the cardinality so it can at least
// be observed on long-running processes.
type Limiter struct {
	mu      sync.Mutex // guards the table only, never held during a check
	limit   int
	window  time.Duration
	windows map[string]*window
}

func NewLimiter(limit int, windowDuration time.Duration) *Limiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if windowDuration <= 0 {
		windowDuration = DefaultWindow
	}
	return &Limiter{
		limit:   limit,
		window:  windowDuration,
		windows: make(map[string]*window),
	}
}

// Allow charges one request against the key's current window and reports
// whether it is admitted. The increment is not rolled back on rejection, so
// a saturated window stays rejected until it expires.
func (l *Limiter) Allow(key string, now time.Time) bool {
	if key == "" {
		key = AnonymousKey
	}

	l.mu.Lock()
	w, ok := l.windows[key]
	if !ok {
		w = &window{}
		l.windows[key] = w
	}
	l.mu.Unlock()

	w.mu.Lock()
	defer w.mu.Unlock()

	if now.Sub(w.start) > l.window {
		w.start = now
		w.count = 1
		return true
	}
	w.count++
	return w.count <= l.limit
}

// Keys reports how many distinct keys have been seen.
func (l *Limiter) Keys() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}
