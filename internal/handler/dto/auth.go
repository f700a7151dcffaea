package dto

// RegisterRequest represents the request body for account creation.
type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	Password string `json:"password"`
}

// LoginRequest represents the request body for credentials sign-in.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionUser is the authenticated identity in session responses.
type SessionUser struct {
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	IsPremium bool   `json:"is_premium"`
}

// SessionResponse represents the current session state.
type SessionResponse struct {
	Authenticated bool         `json:"authenticated"`
	User          *SessionUser `json:"user,omitempty"`
}

// CheckoutResponse carries the hosted checkout redirect.
type CheckoutResponse struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
}
