package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)}
}

// TestLRUEviction tests size-based eviction
func TestLRUEviction(t *testing.T) {
	var reasons []EvictReason
	c := NewLRU[string](3, time.Hour, WithOnEvict(func(_ string, _ string, r EvictReason) {
		reasons = append(reasons, r)
	}))

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	c.Set("key3", "value3")
	c.Set("key4", "value4")

	_, found := c.Get("key1")
	assert.False(t, found, "key1 should have been evicted")
	for _, k := range []string{"key2", "key3", "key4"} {
		_, found := c.Get(k)
		assert.True(t, found, k)
	}
	assert.Equal(t, []EvictReason{EvictCapacity}, reasons)
	assert.Equal(t, 3, c.Len())
}

func TestLRURecencyProtectsReadEntries(t *testing.T) {
	c := NewLRU[int](2, 0)

	c.Set("a", 1)
	c.Set("b", 2)
	_, _ = c.Get("a")
	c.Set("c", 3)

	_, found := c.Get("b")
	assert.False(t, found)
	v, found := c.Get("a")
	require.True(t, found)
	assert.Equal(t, 1, v)
}

func TestLRUOverwriteKeepsLatest(t *testing.T) {
	c := NewLRU[string](2, time.Minute)

	c.Set("k", "first")
	c.Set("k", "second")

	v, found := c.Get("k")
	require.True(t, found)
	assert.Equal(t, "second", v)
	assert.Equal(t, 1, c.Len())
}

// TestLRUExpiration tests time-based expiration
func TestLRUExpiration(t *testing.T) {
	clock := newClock()
	var expired []string
	c := NewLRU[string](100, 50*time.Millisecond,
		WithClock[string](clock.Now),
		WithOnEvict(func(k string, _ string, r EvictReason) {
			if r == EvictExpired {
				expired = append(expired, k)
			}
		}))

	c.Set("key1", "value1")
	_, found := c.Get("key1")
	assert.True(t, found, "key1 should exist immediately")

	clock.Advance(60 * time.Millisecond)

	_, found = c.Get("key1")
	assert.False(t, found, "key1 should have expired")
	assert.Equal(t, []string{"key1"}, expired)
	assert.Zero(t, c.Len())
}

func TestLRUSetRefreshesExpiry(t *testing.T) {
	clock := newClock()
	c := NewLRU[string](10, time.Minute, WithClock[string](clock.Now))

	c.Set("k", "v1")
	clock.Advance(50 * time.Second)
	c.Set("k", "v2")
	clock.Advance(50 * time.Second)

	v, found := c.Get("k")
	require.True(t, found)
	assert.Equal(t, "v2", v)
}

func TestLRUSlidingExpiry(t *testing.T) {
	clock := newClock()
	c := NewLRU[string](10, time.Minute, WithClock[string](clock.Now), WithSliding[string]())

	c.Set("k", "v")
	for i := 0; i < 3; i++ {
		clock.Advance(40 * time.Second)
		_, found := c.Get("k")
		require.True(t, found, "read %d", i)
	}

	clock.Advance(61 * time.Second)
	_, found := c.Get("k")
	assert.False(t, found)
}

// TestLRUCleanExpired tests the cleanup mechanism
func TestLRUCleanExpired(t *testing.T) {
	clock := newClock()
	c := NewLRU[string](100, 50*time.Millisecond, WithClock[string](clock.Now))

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	clock.Advance(30 * time.Millisecond)
	c.Set("key3", "value3")
	clock.Advance(30 * time.Millisecond)

	assert.Equal(t, 2, c.CleanExpired())
	assert.Equal(t, 1, c.Len())
	_, found := c.Get("key3")
	assert.True(t, found)
}

func TestLRUConcurrentAccess(t *testing.T) {
	c := NewLRU[int](64, time.Minute)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				key := string(rune('a' + (i+w)%26))
				c.Set(key, i)
				_, _ = c.Get(key)
			}
		}(w)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 26)
}

func TestJanitorRunStopsWithContext(t *testing.T) {
	clock := newClock()
	c := NewLRU[string](10, time.Millisecond, WithClock[string](clock.Now))
	c.Set("k", "v")
	clock.Advance(time.Second)

	j := NewJanitor(5*time.Millisecond, nil, c)
	assert.Equal(t, 1, j.Sweep())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- j.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}

// BenchmarkLRU benchmarks a read-heavy workload
func BenchmarkLRU(b *testing.B) {
	c := NewLRU[[]byte](1000, time.Hour)
	payload := make([]byte, 128)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if i%10 == 0 {
			c.Set("bench-key", payload)
		} else {
			c.Get("bench-key")
		}
	}
}
