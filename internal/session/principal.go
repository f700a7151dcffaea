// Package session provides authentication for the load board API: session
// token issuance and parsing, password hashing for credentials accounts,
// Google sign-in, and request-context plumbing for the authenticated
// principal.
package session

import "context"

// Principal is the authenticated identity attached to a request. IsPremium
// is merged in by the session middleware so downstream handlers read it
// without a repeated store query.
type Principal struct {
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	IsPremium bool   `json:"is_premium"`
}

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const principalKey contextKey = "session_principal"

// ContextWithPrincipal adds the principal to the context.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext retrieves the principal from the context.
// Returns nil if the request is unauthenticated.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, ok := ctx.Value(principalKey).(*Principal)
	if !ok {
		return nil
	}
	return p
}

// EmailFromContext is a convenience accessor for the principal's email.
// Returns empty string if unauthenticated.
func EmailFromContext(ctx context.Context) string {
	p := PrincipalFromContext(ctx)
	if p == nil {
		return ""
	}
	return p.Email
}
