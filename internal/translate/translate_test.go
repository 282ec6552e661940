package translate

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const addr = "0x1111111111111111111111111111111111111111"

func TestTranslateCountIncomingWithWindow(t *testing.T) {
	tr := New(DefaultCacheCapacity)

	sql, ok := tr.Translate("how many erc-20 transfers came in the last 7 days to " + addr)
	require.True(t, ok)
	assert.Contains(t, sql, "COUNT(*)")
	assert.Contains(t, sql, "to_address = '"+addr+"'")
	assert.Contains(t, sql, "INTERVAL '7 days'")
}

func TestTranslateTurkishQuery(t *testing.T) {
	tr := New(DefaultCacheCapacity)

	sql, ok := tr.Translate("bu adrese son 7 günde kaç erc-20 girmiş? " + addr)
	require.True(t, ok)
	assert.Contains(t, sql, "COUNT(*)")
	assert.Contains(t, sql, "to_address = '"+addr+"'")
	assert.Contains(t, sql, "INTERVAL '7 days'")
}

func TestTranslateDefaultsToSumAndThirtyDays(t *testing.T) {
	tr := New(DefaultCacheCapacity)

	sql, ok := tr.Translate("erc20 volume received by " + addr)
	require.True(t, ok)
	assert.Contains(t, sql, "SUM(value)")
	assert.Contains(t, sql, "to_address")
	assert.Contains(t, sql, "INTERVAL '30 days'")
}

func TestTranslateOutgoingDirection(t *testing.T) {
	tr := New(DefaultCacheCapacity)

	for _, q := range []string{
		"erc20 sent from " + addr + " last 3 days",
		"bu adresten giden erc-20 toplamı " + addr,
	} {
		sql, ok := tr.Translate(q)
		require.True(t, ok, q)
		assert.Contains(t, sql, "from_address = '"+addr+"'", q)
	}
}

func TestTranslateExplicitDateRange(t *testing.T) {
	tr := New(DefaultCacheCapacity)

	sql, ok := tr.Translate("erc20 count for " + addr + " from 2024-01-01 to 2024-01-31")
	require.True(t, ok)
	assert.Contains(t, sql, "BETWEEN '2024-01-01 00:00:00' AND '2024-01-31 23:59:59'")
	assert.NotContains(t, sql, "INTERVAL")
}

func TestTranslateCaseAndWhitespaceNormalized(t *testing.T) {
	tr := New(DefaultCacheCapacity)

	first, ok := tr.Translate("ERC-20 count to " + addr)
	require.True(t, ok)
	second, ok := tr.Translate("  erc-20 count to " + addr + "  ")
	require.True(t, ok)

	assert.Equal(t, first, second)
	assert.Equal(t, uint64(1), tr.Runs())
	assert.Equal(t, uint64(1), tr.Hits())
}

func TestTranslateUnrecognized(t *testing.T) {
	tr := New(DefaultCacheCapacity)

	for _, q := range []string{
		"how many transfers to " + addr, // no erc-20 token
		"erc20 count to 0x1234",         // malformed address
		"what is the weather like",
	} {
		_, ok := tr.Translate(q)
		assert.False(t, ok, q)
	}
}

func TestEmptyInputNotCached(t *testing.T) {
	tr := New(DefaultCacheCapacity)

	_, ok := tr.Translate("")
	assert.False(t, ok)
	_, ok = tr.Translate("   \t ")
	assert.False(t, ok)

	assert.Equal(t, 0, tr.Len())
	assert.Equal(t, uint64(0), tr.Runs())
}

func TestNegativeResultCached(t *testing.T) {
	tr := New(DefaultCacheCapacity)

	_, ok := tr.Translate("nothing to see here")
	require.False(t, ok)
	_, ok = tr.Translate("nothing to see here")
	require.False(t, ok)

	assert.Equal(t, uint64(1), tr.Runs(), "second identical call must not re-run pattern matching")
	assert.Equal(t, uint64(1), tr.Hits())
}

func TestCacheEvictsOldestByInsertionOrder(t *testing.T) {
	tr := New(100)

	for i := 0; i < 100; i++ {
		tr.Translate(fmt.Sprintf("unrecognized query %d", i))
	}
	require.Equal(t, 100, tr.Len())

	// Re-reading the oldest entry must not refresh its position (FIFO, not LRU).
	tr.Translate("unrecognized query 0")
	runsBefore := tr.Runs()

	// The 101st distinct query evicts query 0.
	tr.Translate("one more distinct query")
	assert.Equal(t, 100, tr.Len())

	// Re-inserting query 0 evicts the next-oldest entry, query 1.
	tr.Translate("unrecognized query 0")
	assert.Equal(t, runsBefore+2, tr.Runs(), "evicted entry must be re-evaluated")

	// query 2 is still cached.
	tr.Translate("unrecognized query 2")
	assert.Equal(t, runsBefore+2, tr.Runs())
}

func TestTranslateConcurrent(t *testing.T) {
	tr := New(50)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				tr.Translate(fmt.Sprintf("query %d from goroutine %d", i%60, g%3))
				tr.Translate("erc-20 count to " + addr)
			}
		}(g)
	}
	wg.Wait()

	assert.LessOrEqual(t, tr.Len(), 50)
}

func TestAppendTenantFilter(t *testing.T) {
	sql := AppendTenantFilter("SELECT COUNT(*) FROM erc20_transfers WHERE to_address = 'x'", "acme")
	assert.Equal(t, "SELECT COUNT(*) FROM erc20_transfers WHERE to_address = 'x' AND tenant_id = 'acme'", sql)

	quoted := AppendTenantFilter("SELECT 1", "o'brien")
	assert.NotContains(t, quoted, "'o'brien'")
}
