package audit

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendFillsIDAndTimestamp(t *testing.T) {
	l := NewLog(10)
	l.Append(Entry{TenantID: "acme", Role: "analyst", Query: "q"})

	entries := l.Snapshot()
	require.Len(t, entries, 1)
	assert.NotEmpty(t, entries[0].ID)
	assert.False(t, entries[0].Timestamp.IsZero())
}

func TestCapacityEvictsSingleOldest(t *testing.T) {
	l := NewLog(1000)

	for i := 0; i < 1001; i++ {
		l.Append(Entry{Query: fmt.Sprintf("q%d", i)})
	}

	entries := l.Snapshot()
	require.Len(t, entries, 1000)
	assert.Equal(t, "q1", entries[0].Query, "only the single oldest entry is dropped")
	assert.Equal(t, "q1000", entries[999].Query)

	l.Append(Entry{Query: "q1001"})
	assert.Equal(t, 1000, l.Len())
	assert.Equal(t, "q2", l.Snapshot()[0].Query)
}

func TestSnapshotIsACopy(t *testing.T) {
	l := NewLog(10)
	l.Append(Entry{Query: "original"})

	snap := l.Snapshot()
	snap[0].Query = "mutated"

	assert.Equal(t, "original", l.Snapshot()[0].Query)
}

func TestConcurrentAppends(t *testing.T) {
	l := NewLog(100)

	var wg sync.WaitGroup
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				l.Append(Entry{Query: "q"})
				l.Snapshot()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, l.Len())
}
