// Package gate implements the per-request access decision for protected
// resources. The decision is pure: the only external effect is the
// entitlement read performed by the supplied checker.
package gate

import (
	"context"

	"github.com/majorload/majorload/internal/session"
)

// Entry points users are redirected to when a check fails.
const (
	SignInPath  = "/login"
	UpgradePath = "/pricing"
)

// Resource describes the access level a route requires.
type Resource int

const (
	// ResourcePublic requires nothing.
	ResourcePublic Resource = iota
	// ResourceAuthenticated requires a signed-in user.
	ResourceAuthenticated
	// ResourcePremium requires a signed-in user with premium entitlement.
	ResourcePremium
)

// PremiumChecker reports premium entitlement for an email.
// Implemented by *entitlement.Service.
type PremiumChecker interface {
	IsPremium(ctx context.Context, email string) bool
}

// Decision is the outcome of an access check.
type Decision struct {
	Allowed bool
	// RedirectTo is the entry point to send the user to when not allowed.
	RedirectTo string
}

// Allow is the decision for a granted request.
var Allow = Decision{Allowed: true}

// Decide checks whether the principal may access the resource.
// A nil principal means no authenticated session.
func Decide(ctx context.Context, checker PremiumChecker, principal *session.Principal, resource Resource) Decision {
	if resource == ResourcePublic {
		return Allow
	}

	if principal == nil || principal.Email == "" {
		return Decision{RedirectTo: SignInPath}
	}

	if resource == ResourcePremium && !checker.IsPremium(ctx, principal.Email) {
		return Decision{RedirectTo: UpgradePath}
	}

	return Allow
}
