package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/majorload/majorload/internal/handler/dto"
	"github.com/majorload/majorload/internal/session"
)

func newAuthHandlerForSession(t *testing.T) *AuthHandler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAuthHandler(nil, nil, "test-secret", time.Hour, false, logger)
}

func TestAuth_SessionUnauthenticated(t *testing.T) {
	t.Parallel()

	h := newAuthHandlerForSession(t)

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	rec := httptest.NewRecorder()
	h.Session(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp dto.SessionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Authenticated {
		t.Error("authenticated = true without a session")
	}
	if resp.User != nil {
		t.Errorf("user = %+v, want nil", resp.User)
	}
}

func TestAuth_SessionAuthenticated(t *testing.T) {
	t.Parallel()

	h := newAuthHandlerForSession(t)

	principal := &session.Principal{Email: "carrier@example.com", Name: "Pat", IsPremium: true}
	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req = req.WithContext(session.ContextWithPrincipal(req.Context(), principal))

	rec := httptest.NewRecorder()
	h.Session(rec, req)

	var resp dto.SessionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Authenticated || resp.User == nil {
		t.Fatalf("response = %+v, want authenticated session", resp)
	}
	if resp.User.Email != "carrier@example.com" || !resp.User.IsPremium {
		t.Errorf("user = %+v", resp.User)
	}
}

func TestAuth_LogoutExpiresCookie(t *testing.T) {
	t.Parallel()

	h := newAuthHandlerForSession(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var cleared bool
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == session.CookieName && cookie.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("session cookie was not expired")
	}
}

func TestAuth_GoogleStartNotConfigured(t *testing.T) {
	t.Parallel()

	h := newAuthHandlerForSession(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/google", nil)
	rec := httptest.NewRecorder()
	h.GoogleStart(rec, req)

	if rec.Code != http.StatusNotImplemented {
		t.Errorf("status = %d, want 501 when oauth is not configured", rec.Code)
	}
}
