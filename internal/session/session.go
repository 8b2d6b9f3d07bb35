// Package session keeps the uploaded dataset of each browser session in
// memory. Sessions are addressed by an opaque id carried in URLs and forms.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"hrdash/internal/cache"
	"hrdash/internal/sheet"
)

// State is the dataset of one session. It is replaced wholesale on upload
// and never mutated in place.
type State struct {
	Rows       []sheet.Row
	Headers    []string
	Sheet      string
	FileName   string
	UploadedAt time.Time
}

// Empty reports whether no rows were uploaded.
func (s State) Empty() bool {
	return len(s.Rows) == 0
}

// Store holds session states.
type Store interface {
	Get(id string) (State, bool)
	Put(id string, st State)
	NewID() string
}

// Config sizes a MemoryStore.
type Config struct {
	Capacity      int
	TTL           time.Duration
	SweepInterval time.Duration
}

// MemoryStore is a Store backed by an expiring LRU cache.
type MemoryStore struct {
	states  *cache.LRU[State]
	logger  *slog.Logger
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	onEvict func(reason cache.EvictReason)
}

// Option configures a MemoryStore.
type Option func(*MemoryStore)

// WithLogger sets the logger used for eviction events.
func WithLogger(l *slog.Logger) Option {
	return func(m *MemoryStore) { m.logger = l }
}

// WithEvictHook is called for every dropped session.
func WithEvictHook(fn func(reason cache.EvictReason)) Option {
	return func(m *MemoryStore) { m.onEvict = fn }
}

// NewMemoryStore creates the store and starts its expiry sweeper. Call
// Close to stop it.
func NewMemoryStore(cfg Config, opts ...Option) *MemoryStore {
	m := &MemoryStore{logger: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}

	m.states = cache.NewLRU[State](cfg.Capacity, cfg.TTL,
		cache.WithSliding[State](),
		cache.WithOnEvict(func(id string, st State, reason cache.EvictReason) {
			m.logger.Debug("Session dropped",
				"session_id", id,
				"reason", string(reason),
				"rows", len(st.Rows))
			if m.onEvict != nil {
				m.onEvict(reason)
			}
		}))

	interval := cfg.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	janitor := cache.NewJanitor(interval, m.logger, m.states)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		_ = janitor.Run(ctx)
	}()
	return m
}

// Get returns the state of session id. Unknown or expired ids report false.
func (m *MemoryStore) Get(id string) (State, bool) {
	if id == "" {
		return State{}, false
	}
	return m.states.Get(id)
}

// Put replaces the state of session id. The last write wins.
func (m *MemoryStore) Put(id string, st State) {
	m.states.Set(id, st)
}

// NewID returns a fresh random session id.
func (m *MemoryStore) NewID() string {
	return uuid.NewString()
}

// Len returns the number of live sessions.
func (m *MemoryStore) Len() int {
	return m.states.Len()
}

// Close stops the sweeper.
func (m *MemoryStore) Close() error {
	m.cancel()
	m.wg.Wait()
	return nil
}

// ValidID reports whether id looks like an id minted by NewID.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
