package translate

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

const (
	// DefaultCacheCapacity bounds the translation result cache.
	DefaultCacheCapacity = 100

	transferTable = "erc20_transfers"
	defaultDays   = 30
)

var (
	addressRe   = regexp.MustCompile(`0x[0-9a-f]{40}`)
	lastDaysRe  = regexp.MustCompile(`(?:last|son)\s+(\d+)\s+(?:days?|gün\pL*)`)
	dateRangeRe = regexp.MustCompile(`from\s+(\d{4}-\d{2}-\d{2})\s+to\s+(\d{4}-\d{2}-\d{2})`)
	outgoingRe  = regexp.MustCompile(`\b(?:out|outgoing|sent)\b`)
)

// Turkish direction vocabulary can't use \b (non-ASCII word boundaries),
// so it is matched by substring instead.
var outgoingWords = []string{"giden", "gönder", "çık"}

var countWords = []string{"how many", "count", "kaç"}

type cached struct {
	sql string
	ok  bool
}

// Translator maps a normalized natural-language query to generated SQL.
// Results, including confirmed non-matches, are cached so identical inputs
// never re-run the pattern matching. Eviction is strictly FIFO by insertion
// order; lookups do not refresh an entry's position.
type Translator struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]cached
	queue    []string // insertion order, oldest first

	hits uint64
	runs uint64 // times the pattern matcher actually executed
}

func New(capacity int) *Translator {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &Translator{
		capacity: capacity,
		entries:  make(map[string]cached),
	}
}

// Translate returns the generated SQL for a recognized query, or ok=false
// when the input doesn't match the supported pattern. Empty or
// whitespace-only input is rejected without touching the cache.
func (t *Translator) Translate(rawQuery string) (string, bool) {
	normalized := strings.ToLower(strings.TrimSpace(rawQuery))
	if normalized == "" {
		return "", false
	}

	t.mu.Lock()
	if c, found := t.entries[normalized]; found {
		t.hits++
		t.mu.Unlock()
		return c.sql, c.ok
	}
	t.runs++
	t.mu.Unlock()

	// Pattern matching runs outside the lock; a concurrent duplicate just
	// stores the same result twice under the same key.
	sql, ok := generate(normalized)

	t.mu.Lock()
	if _, found := t.entries[normalized]; !found {
		t.entries[normalized] = cached{sql: sql, ok: ok}
		t.queue = append(t.queue, normalized)
		if len(t.queue) > t.capacity {
			oldest := t.queue[0]
			t.queue = t.queue[1:]
			delete(t.entries, oldest)
		}
	}
	t.mu.Unlock()

	return sql, ok
}

// Len reports the number of live cache entries.
func (t *Translator) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Hits reports cache hits since start.
func (t *Translator) Hits() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.hits
}

// Runs reports how many times the pattern matcher has executed.
func (t *Translator) Runs() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.runs
}

// generate is the single supported pattern: an ERC-20 token transfer question
// about one address, with an optional day window or explicit date range.
func generate(q string) (string, bool) {
	if !strings.Contains(q, "erc-20") && !strings.Contains(q, "erc20") {
		return "", false
	}
	address := addressRe.FindString(q)
	if address == "" {
		return "", false
	}

	agg := "COALESCE(SUM(value), 0)"
	if containsAny(q, countWords) {
		agg = "COUNT(*)"
	}

	column := "to_address"
	if outgoingRe.MatchString(q) || containsAny(q, outgoingWords) {
		column = "from_address"
	}

	var dateFilter string
	if m := dateRangeRe.FindStringSubmatch(q); m != nil {
		// Inclusive range spanning full days.
		dateFilter = fmt.Sprintf("block_time BETWEEN '%s 00:00:00' AND '%s 23:59:59'", m[1], m[2])
	} else {
		days := defaultDays
		if m := lastDaysRe.FindStringSubmatch(q); m != nil {
			if n, err := parsePositiveInt(m[1]); err == nil {
				days = n
			}
		}
		dateFilter = fmt.Sprintf("block_time >= NOW() - INTERVAL '%d days'", days)
	}

	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s = '%s' AND %s",
		agg, transferTable, column, address, dateFilter)
	return sql, true
}

// AppendTenantFilter scopes a generated query to one tenant. Applied by the
// caller after cache lookup so the cache stays tenant-agnostic.
func AppendTenantFilter(sql, tenantID string) string {
	return sql + fmt.Sprintf(" AND tenant_id = '%s'", strings.ReplaceAll(tenantID, "'", ""))
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func parsePositiveInt(s string) (int, error) {
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("non-positive day window %d", n)
	}
	return n, nil
}
