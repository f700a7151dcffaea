package metrics

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncPremiumCacheHit is a no-op.
func (n *NoopRecorder) IncPremiumCacheHit() {}

// IncPremiumCacheMiss is a no-op.
func (n *NoopRecorder) IncPremiumCacheMiss() {}

// IncPremiumActivation is a no-op.
func (n *NoopRecorder) IncPremiumActivation() {}

// IncWebhookEvent is a no-op.
func (n *NoopRecorder) IncWebhookEvent(outcome string) {}

// IncLoadPosted is a no-op.
func (n *NoopRecorder) IncLoadPosted(premium bool) {}
