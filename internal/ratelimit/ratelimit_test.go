package ratelimit

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowLimit(t *testing.T) {
	l := NewLimiter(100, time.Minute)
	now := time.Now()

	for i := 0; i < 100; i++ {
		require.True(t, l.Allow("tenant-a", now), "request %d should be admitted", i+1)
	}
	assert.False(t, l.Allow("tenant-a", now), "101st request in the window must be rejected")
}

func TestPoisonedWindowStaysRejected(t *testing.T) {
	l := NewLimiter(2, time.Minute)
	now := time.Now()

	assert.True(t, l.Allow("k", now))
	assert.True(t, l.Allow("k", now))
	assert.False(t, l.Allow("k", now))
	// The rejected increment is not rolled back.
	assert.False(t, l.Allow("k", now.Add(30*time.Second)))
}

func TestWindowExpiryResetsCount(t *testing.T) {
	l := NewLimiter(100, time.Minute)
	now := time.Now()

	for i := 0; i < 101; i++ {
		l.Allow("k", now)
	}

	later := now.Add(61 * time.Second)
	assert.True(t, l.Allow("k", later), "first request after the window elapses is admitted")

	// Count was reset to 1: 99 more fit, the next one doesn't.
	for i := 0; i < 99; i++ {
		require.True(t, l.Allow("k", later))
	}
	assert.False(t, l.Allow("k", later))
}

func TestKeysAreIndependent(t *testing.T) {
	l := NewLimiter(1, time.Minute)
	now := time.Now()

	assert.True(t, l.Allow("a", now))
	assert.False(t, l.Allow("a", now))
	assert.True(t, l.Allow("b", now))

	assert.Equal(t, 2, l.Keys())
}

func TestEmptyKeyFallsBackToAnonymous(t *testing.T) {
	l := NewLimiter(1, time.Minute)
	now := time.Now()

	assert.True(t, l.Allow("", now))
	assert.False(t, l.Allow(AnonymousKey, now))
}

func TestConcurrentAdmissionSingleKey(t *testing.T) {
	l := NewLimiter(100, time.Minute)
	now := time.Now()

	var admitted atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 250; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("shared", now) {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(100), admitted.Load())
}
