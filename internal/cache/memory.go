// Package cache provides the application's caching layers: an in-process
// TTL cache used by the entitlement service and a Redis-backed token bucket
// used for rate limiting.
package cache

import (
	"context"
	"sync"
	"time"
)

// DefaultSweepInterval is how often the background sweep removes expired
// entries. Sweeping is an optimization only: reads always check expiry.
const DefaultSweepInterval = 60 * time.Second

// memoryEntry holds a cached value with an absolute expiry.
// An entry is never valid at or after its expiry instant.
type memoryEntry struct {
	value     any
	expiresAt time.Time
}

// Memory is a process-local TTL cache. It is safe for concurrent use by the
// read path, the invalidation path, and the background sweeper.
//
// The cache is not shared across instances of the service; in a
// multi-instance deployment other instances may serve a stale value for up
// to the entry TTL after a write elsewhere.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}

	// now is swapped in tests to control expiry.
	now func() time.Time
}

// NewMemory creates a Memory cache. If sweepInterval is positive, a
// background goroutine deletes expired entries on that interval until
// Close is called.
func NewMemory(sweepInterval time.Duration) *Memory {
	m := &Memory{
		entries: make(map[string]memoryEntry),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		now:     time.Now,
	}

	if sweepInterval > 0 {
		go m.sweepLoop(sweepInterval)
	} else {
		close(m.done)
	}

	return m
}

// GetOrLoad returns the cached value for key if an unexpired entry exists.
// Otherwise it invokes loader, caches the result with expiry now+ttl, and
// returns it. Loader errors propagate and nothing is cached (no negative
// caching). The loader must be an idempotent, side-effect-free read.
func (m *Memory) GetOrLoad(ctx context.Context, key string, ttl time.Duration, loader func(ctx context.Context) (any, error)) (any, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if ok && m.now().Before(entry.expiresAt) {
		return entry.value, nil
	}

	value, err := loader(ctx)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.entries[key] = memoryEntry{
		value:     value,
		expiresAt: m.now().Add(ttl),
	}
	m.mu.Unlock()

	return value, nil
}

// Invalidate removes the entry for key. Removing an absent key is not an
// error.
func (m *Memory) Invalidate(key string) {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
}

// Clear removes all entries.
func (m *Memory) Clear() {
	m.mu.Lock()
	m.entries = make(map[string]memoryEntry)
	m.mu.Unlock()
}

// Len returns the number of entries currently held, expired or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Close stops the background sweeper and waits for it to exit. The cache
// remains usable after Close; only the sweep stops.
func (m *Memory) Close() {
	m.stopOnce.Do(func() {
		close(m.stop)
	})
	<-m.done
}

// sweepLoop periodically deletes expired entries until Close is called.
func (m *Memory) sweepLoop(interval time.Duration) {
	defer close(m.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sweep()
		case <-m.stop:
			return
		}
	}
}

// sweep deletes all entries whose expiry has passed.
func (m *Memory) sweep() {
	now := m.now()

	m.mu.Lock()
	for key, entry := range m.entries {
		if !now.Before(entry.expiresAt) {
			delete(m.entries, key)
		}
	}
	m.mu.Unlock()
}
