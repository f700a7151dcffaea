package metrics

import (
	"sync"
	"sync/atomic"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	PremiumCacheHits   uint64
	PremiumCacheMisses uint64
	PremiumActivations uint64
	WebhookEvents      map[string]uint64
	LoadsPosted        uint64
	PremiumLoadsPosted uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	premiumCacheHits   uint64
	premiumCacheMisses uint64
	premiumActivations uint64
	loadsPosted        uint64
	premiumLoadsPosted uint64

	mu            sync.Mutex
	webhookEvents map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		webhookEvents: make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	snap := Snapshot{
		PremiumCacheHits:   atomic.LoadUint64(&m.premiumCacheHits),
		PremiumCacheMisses: atomic.LoadUint64(&m.premiumCacheMisses),
		PremiumActivations: atomic.LoadUint64(&m.premiumActivations),
		LoadsPosted:        atomic.LoadUint64(&m.loadsPosted),
		PremiumLoadsPosted: atomic.LoadUint64(&m.premiumLoadsPosted),
		WebhookEvents:      make(map[string]uint64),
	}

	m.mu.Lock()
	for outcome, count := range m.webhookEvents {
		snap.WebhookEvents[outcome] = count
	}
	m.mu.Unlock()

	return snap
}

// IncPremiumCacheHit increments the cache hit counter.
func (m *InMemoryRecorder) IncPremiumCacheHit() {
	atomic.AddUint64(&m.premiumCacheHits, 1)
}

// IncPremiumCacheMiss increments the cache miss counter.
func (m *InMemoryRecorder) IncPremiumCacheMiss() {
	atomic.AddUint64(&m.premiumCacheMisses, 1)
}

// IncPremiumActivation increments the activation counter.
func (m *InMemoryRecorder) IncPremiumActivation() {
	atomic.AddUint64(&m.premiumActivations, 1)
}

// IncWebhookEvent increments the counter for a webhook outcome.
func (m *InMemoryRecorder) IncWebhookEvent(outcome string) {
	m.mu.Lock()
	m.webhookEvents[outcome]++
	m.mu.Unlock()
}

// IncLoadPosted increments the load posting counters.
func (m *InMemoryRecorder) IncLoadPosted(premium bool) {
	atomic.AddUint64(&m.loadsPosted, 1)
	if premium {
		atomic.AddUint64(&m.premiumLoadsPosted, 1)
	}
}
