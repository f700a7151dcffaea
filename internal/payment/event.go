// Package payment integrates with the payment provider: verifying inbound
// webhook events and calling the provider's REST API for customer lookups
// and checkout-session creation.
package payment

import (
	"encoding/json"
	"fmt"
)

// EventCheckoutCompleted is the only event type that drives an entitlement
// write. All other verified event types are acknowledged and ignored.
const EventCheckoutCompleted = "checkout.session.completed"

// MetadataUserEmail is the metadata key carrying the purchaser's email.
// Checkout-session creation sets it so the webhook can resolve identity
// even when the provider omits customer_email.
const MetadataUserEmail = "userEmail"

// Event is an inbound provider notification.
type Event struct {
	ID   string    `json:"id"`
	Type string    `json:"type"`
	Data EventData `json:"data"`
}

// EventData wraps the object the event describes.
type EventData struct {
	Object CheckoutSession `json:"object"`
}

// CheckoutSession is the provider's checkout session object, both as it
// appears in webhook events and as returned by session creation.
type CheckoutSession struct {
	ID            string            `json:"id"`
	URL           string            `json:"url,omitempty"`
	Customer      string            `json:"customer,omitempty"`
	CustomerEmail string            `json:"customer_email,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// Customer is a provider customer record, fetched when an event carries only
// a customer reference.
type Customer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// ParseEvent decodes a verified webhook body.
func ParseEvent(body []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("failed to parse event payload: %w", err)
	}
	return &event, nil
}
