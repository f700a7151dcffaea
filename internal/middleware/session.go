package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/majorload/majorload/internal/gate"
	"github.com/majorload/majorload/internal/session"
)

// SessionConfig holds configuration for the session middleware.
type SessionConfig struct {
	Logger *slog.Logger
	Secret string
	// Entitlements merges the premium flag into the principal.
	Entitlements gate.PremiumChecker
}

// Session returns middleware that resolves the authenticated principal from
// the session cookie or a bearer token. The premium flag is merged into the
// principal here, through the entitlement cache, so downstream handlers
// never query the store directly. Requests without a valid token proceed
// unauthenticated; route gating is a separate concern (see RequireAccess).
func Session(cfg SessionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractSessionToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := session.ParseToken(cfg.Secret, token)
			if err != nil {
				cfg.Logger.Warn("session token rejected",
					slog.String("request_id", GetRequestID(r.Context())),
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}

			principal := &session.Principal{
				Email:     claims.Email,
				Name:      claims.Name,
				IsPremium: cfg.Entitlements.IsPremium(r.Context(), claims.Email),
			}

			ctx := session.ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAccess returns middleware enforcing the gate decision for a
// resource level. Must be applied after Session. Denied API requests get a
// JSON error carrying the redirect entry point; page collaborators use it
// to send the user to sign-in or pricing.
func RequireAccess(cfg SessionConfig, resource gate.Resource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := session.PrincipalFromContext(r.Context())

			decision := gate.Decide(r.Context(), cfg.Entitlements, principal, resource)
			if decision.Allowed {
				next.ServeHTTP(w, r)
				return
			}

			status := http.StatusUnauthorized
			message := "authentication required"
			if decision.RedirectTo == gate.UpgradePath {
				status = http.StatusForbidden
				message = "premium subscription required"
			}

			cfg.Logger.Info("access denied",
				slog.String("request_id", GetRequestID(r.Context())),
				slog.String("path", r.URL.Path),
				slog.String("redirect_to", decision.RedirectTo),
			)

			writeDenied(w, status, message, decision.RedirectTo)
		})
	}
}

// extractSessionToken reads the session cookie, falling back to a bearer
// Authorization header for non-browser clients.
func extractSessionToken(r *http.Request) string {
	if cookie, err := r.Cookie(session.CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := r.Header.Get("Authorization")
	if token, found := strings.CutPrefix(header, "Bearer "); found {
		return token
	}

	return ""
}

func writeDenied(w http.ResponseWriter, status int, message, redirectTo string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + message + `","redirect_to":"` + redirectTo + `"}`))
}
