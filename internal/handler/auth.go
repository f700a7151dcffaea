package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/majorload/majorload/internal/handler/dto"
	"github.com/majorload/majorload/internal/middleware"
	"github.com/majorload/majorload/internal/model"
	"github.com/majorload/majorload/internal/repository"
	"github.com/majorload/majorload/internal/session"
)

// stateCookieName carries the OAuth CSRF state between redirect and callback.
const stateCookieName = "majorload_oauth_state"

// minPasswordLength for credentials accounts.
const minPasswordLength = 8

// AuthHandler handles registration, sign-in, and session introspection.
type AuthHandler struct {
	repo       *repository.Repository
	google     *session.GoogleOAuth // nil when not configured
	secret     string
	sessionTTL time.Duration
	secure     bool
	logger     *slog.Logger
}

// NewAuthHandler creates a new AuthHandler. google may be nil; the Google
// sign-in routes then answer 501.
func NewAuthHandler(repo *repository.Repository, google *session.GoogleOAuth, secret string, sessionTTL time.Duration, secure bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		repo:       repo,
		google:     google,
		secret:     secret,
		sessionTTL: sessionTTL,
		secure:     secure,
		logger:     logger,
	}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		writeError(w, http.StatusBadRequest, "INVALID_EMAIL", "A valid email is required")
		return
	}
	if len(req.Password) < minPasswordLength {
		writeError(w, http.StatusBadRequest, "WEAK_PASSWORD", "Password must be at least 8 characters")
		return
	}

	hash, err := session.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("password hashing failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	user, err := h.repo.CreateUserWithPassword(r.Context(), email, strings.TrimSpace(req.Name), hash)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			writeError(w, http.StatusConflict, "EMAIL_TAKEN", "An account with this email already exists")
			return
		}
		h.logger.Error("registration failed", "email", email, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	h.logger.Info("account registered",
		slog.String("request_id", middleware.GetRequestID(r.Context())),
		slog.String("email", user.Email),
	)

	h.issueSession(w, r, user, http.StatusCreated)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := h.repo.GetUserByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			writeError(w, http.StatusUnauthorized, "BAD_CREDENTIALS", "Invalid email or password")
			return
		}
		h.logger.Error("login lookup failed", "email", email, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	if user.PasswordHash == "" {
		// Google-only account; no password to check.
		writeError(w, http.StatusUnauthorized, "BAD_CREDENTIALS", "Invalid email or password")
		return
	}

	ok, err := session.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil || !ok {
		writeError(w, http.StatusUnauthorized, "BAD_CREDENTIALS", "Invalid email or password")
		return
	}

	h.logger.Info("signed in",
		slog.String("request_id", middleware.GetRequestID(r.Context())),
		slog.String("email", user.Email),
	)

	h.issueSession(w, r, user, http.StatusOK)
}

// Logout handles POST /auth/logout by expiring the session cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]bool{"signed_out": true})
}

// Session handles GET /api/session. The premium flag reflects the cached
// entitlement merged in by the session middleware.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	principal := session.PrincipalFromContext(r.Context())
	if principal == nil {
		writeJSON(w, http.StatusOK, dto.SessionResponse{Authenticated: false})
		return
	}

	writeJSON(w, http.StatusOK, dto.SessionResponse{
		Authenticated: true,
		User: &dto.SessionUser{
			Email:     principal.Email,
			Name:      principal.Name,
			IsPremium: principal.IsPremium,
		},
	})
}

// GoogleStart handles GET /auth/google: sets the CSRF state cookie and
// redirects to Google's consent screen.
func (h *AuthHandler) GoogleStart(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		writeError(w, http.StatusNotImplemented, "OAUTH_NOT_CONFIGURED", "Google sign-in is not configured")
		return
	}

	state, err := h.google.NewState()
	if err != nil {
		h.logger.Error("oauth state generation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/auth/google",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.google.AuthURL(state), http.StatusFound)
}

// GoogleCallback handles GET /auth/google/callback: verifies state, exchanges
// the code, upserts the profile, and issues a session.
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		writeError(w, http.StatusNotImplemented, "OAUTH_NOT_CONFIGURED", "Google sign-in is not configured")
		return
	}

	state := r.URL.Query().Get("state")
	cookie, err := r.Cookie(stateCookieName)
	if err != nil || state == "" || state != cookie.Value || !h.google.VerifyState(state) {
		writeError(w, http.StatusBadRequest, "BAD_STATE", "OAuth state validation failed")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "MISSING_CODE", "Authorization code is missing")
		return
	}

	identity, err := h.google.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Warn("google code exchange failed",
			slog.String("request_id", middleware.GetRequestID(r.Context())),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusUnauthorized, "EXCHANGE_FAILED", "Could not verify Google identity")
		return
	}

	user, err := h.repo.UpsertUserProfile(r.Context(), strings.ToLower(identity.Email), identity.Name)
	if err != nil {
		h.logger.Error("profile upsert failed", "email", identity.Email, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	token, err := session.MakeToken(h.secret, user.Email, user.Name, h.sessionTTL)
	if err != nil {
		h.logger.Error("session token issuance failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}
	h.setSessionCookie(w, token)

	h.logger.Info("signed in with google",
		slog.String("request_id", middleware.GetRequestID(r.Context())),
		slog.String("email", user.Email),
	)

	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// issueSession sets the session cookie and writes the session response.
func (h *AuthHandler) issueSession(w http.ResponseWriter, r *http.Request, user *model.User, status int) {
	token, err := session.MakeToken(h.secret, user.Email, user.Name, h.sessionTTL)
	if err != nil {
		h.logger.Error("session token issuance failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}
	h.setSessionCookie(w, token)

	writeJSON(w, status, dto.SessionResponse{
		Authenticated: true,
		User: &dto.SessionUser{
			Email:     user.Email,
			Name:      user.Name,
			IsPremium: user.IsPremium,
		},
	})
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
