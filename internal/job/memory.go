package job

import (
	"context"
	"sync"
	"time"
)

// Compile-time check that MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)

// DefaultTTL is the retention window for job records. A caller that has not
// observed a terminal state within this window must restart generation.
const DefaultTTL = time.Hour

// MemoryStore is an in-memory Store with per-record expiry. Suitable for
// single-instance deployments; swap for a networked cache behind the same
// interface when running more than one replica.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
	done    chan struct{}
	stop    sync.Once
}

type entry struct {
	rec       Record
	expiresAt time.Time
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithClock overrides the expiry clock. Used in tests.
func WithClock(now func() time.Time) MemoryStoreOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// NewMemoryStore creates a MemoryStore with the given retention window and
// starts a janitor goroutine that sweeps expired records. Call Stop when the
// store is no longer needed.
func NewMemoryStore(ttl time.Duration, opts ...MemoryStoreOption) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &MemoryStore{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	go s.janitor()
	return s
}

// Put writes a record and resets its retention window.
func (s *MemoryStore) Put(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[rec.ID] = entry{
		rec:       rec,
		expiresAt: s.now().Add(s.ttl),
	}
	return nil
}

// Get returns the record for the ID. Expired records are indistinguishable
// from records that never existed.
func (s *MemoryStore) Get(_ context.Context, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok || s.now().After(e.expiresAt) {
		return Record{}, ErrNotFound
	}
	return e.rec, nil
}

// Stop terminates the janitor goroutine. Safe to call more than once.
func (s *MemoryStore) Stop() {
	s.stop.Do(func() {
		close(s.done)
	})
}

// janitor periodically removes expired entries so abandoned jobs do not
// accumulate. Expiry itself is enforced lazily in Get; the sweep only
// reclaims memory.
func (s *MemoryStore) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *MemoryStore) sweep() {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, id)
		}
	}
}
