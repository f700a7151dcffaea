// Package model defines domain entities for the application.
package model

import "time"

// User represents a load board account. Users are keyed by email: the
// identity provider, the payment provider's webhooks, and the entitlement
// service all correlate on the email address.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	IsPremium bool      `json:"is_premium"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// PasswordHash is set only for credentials accounts. Never serialized.
	PasswordHash string `json:"-"`
}
