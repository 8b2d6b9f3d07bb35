// Package cache provides a bounded in-memory store with per-entry expiry.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// EvictReason tells an eviction hook why an entry left the cache.
type EvictReason string

const (
	EvictExpired  EvictReason = "expired"
	EvictCapacity EvictReason = "capacity"
)

// Option configures an LRU.
type Option[T any] func(*LRU[T])

// WithOnEvict registers fn to run after an entry is removed. It is called
// without the cache lock held.
func WithOnEvict[T any](fn func(key string, value T, reason EvictReason)) Option[T] {
	return func(c *LRU[T]) { c.onEvict = fn }
}

// WithClock replaces time.Now, mostly for tests.
func WithClock[T any](now func() time.Time) Option[T] {
	return func(c *LRU[T]) { c.now = now }
}

// WithSliding makes reads extend an entry's expiry, so ttl becomes an idle
// timeout.
func WithSliding[T any]() Option[T] {
	return func(c *LRU[T]) { c.sliding = true }
}

// LRU is a least-recently-used cache whose entries also expire a fixed
// duration after their last write (or last read with WithSliding).
type LRU[T any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	sliding  bool
	items    map[string]*list.Element
	order    *list.List
	now      func() time.Time
	onEvict  func(string, T, EvictReason)
}

type entry[T any] struct {
	key       string
	value     T
	expiresAt time.Time
}

type evicted[T any] struct {
	key    string
	value  T
	reason EvictReason
}

// NewLRU returns a cache holding at most capacity entries for ttl each.
// A non-positive capacity means unbounded, a non-positive ttl means no expiry.
func NewLRU[T any](capacity int, ttl time.Duration, opts ...Option[T]) *LRU[T] {
	c := &LRU[T]{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*list.Element),
		order:    list.New(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the live value stored under key.
func (c *LRU[T]) Get(key string) (T, bool) {
	var zero T

	c.mu.Lock()
	elem, ok := c.items[key]
	if !ok {
		c.mu.Unlock()
		return zero, false
	}
	e := elem.Value.(*entry[T])
	now := c.now()
	if c.expired(e, now) {
		c.remove(elem)
		c.mu.Unlock()
		c.notify([]evicted[T]{{e.key, e.value, EvictExpired}})
		return zero, false
	}
	if c.sliding && c.ttl > 0 {
		e.expiresAt = now.Add(c.ttl)
	}
	c.order.MoveToFront(elem)
	c.mu.Unlock()
	return e.value, true
}

// Set stores value under key, replacing any previous value and resetting
// its expiry. The least recently used entry is dropped when full.
func (c *LRU[T]) Set(key string, value T) {
	c.mu.Lock()
	e := &entry[T]{key: key, value: value}
	if c.ttl > 0 {
		e.expiresAt = c.now().Add(c.ttl)
	}

	if elem, ok := c.items[key]; ok {
		elem.Value = e
		c.order.MoveToFront(elem)
		c.mu.Unlock()
		return
	}

	c.items[key] = c.order.PushFront(e)

	var out []evicted[T]
	for c.capacity > 0 && c.order.Len() > c.capacity {
		oldest := c.order.Back()
		old := oldest.Value.(*entry[T])
		c.remove(oldest)
		out = append(out, evicted[T]{old.key, old.value, EvictCapacity})
	}
	c.mu.Unlock()
	c.notify(out)
}

// CleanExpired drops every expired entry and returns how many were removed.
func (c *LRU[T]) CleanExpired() int {
	c.mu.Lock()
	now := c.now()
	var out []evicted[T]
	for elem := c.order.Front(); elem != nil; {
		next := elem.Next()
		if e := elem.Value.(*entry[T]); c.expired(e, now) {
			c.remove(elem)
			out = append(out, evicted[T]{e.key, e.value, EvictExpired})
		}
		elem = next
	}
	c.mu.Unlock()
	c.notify(out)
	return len(out)
}

// Len returns the number of stored entries, expired ones included until
// they are cleaned.
func (c *LRU[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *LRU[T]) expired(e *entry[T], now time.Time) bool {
	return c.ttl > 0 && now.After(e.expiresAt)
}

func (c *LRU[T]) remove(elem *list.Element) {
	delete(c.items, elem.Value.(*entry[T]).key)
	c.order.Remove(elem)
}

func (c *LRU[T]) notify(out []evicted[T]) {
	if c.onEvict == nil {
		return
	}
	for _, ev := range out {
		c.onEvict(ev.key, ev.value, ev.reason)
	}
}
