// Package metrics provides lightweight hooks for instrumentation.
package metrics

// Webhook outcome labels.
const (
	WebhookOutcomeActivated = "activated"
	WebhookOutcomeIgnored   = "ignored"
	WebhookOutcomeSkipped   = "skipped"
	WebhookOutcomeRejected  = "rejected"
	WebhookOutcomeFailed    = "failed"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Entitlement metrics
	IncPremiumCacheHit()
	IncPremiumCacheMiss()
	IncPremiumActivation()

	// Webhook metrics
	IncWebhookEvent(outcome string)

	// Load board metrics
	IncLoadPosted(premium bool)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
