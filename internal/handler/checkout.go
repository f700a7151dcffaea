package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/majorload/majorload/internal/handler/dto"
	"github.com/majorload/majorload/internal/middleware"
	"github.com/majorload/majorload/internal/payment"
	"github.com/majorload/majorload/internal/session"
)

// proProductName is the display name on the hosted checkout page.
const proProductName = "MajorLOAD Pro Plan"

// CheckoutHandler starts hosted checkout sessions for the premium upgrade.
type CheckoutHandler struct {
	payments   *payment.Client
	baseURL    string
	priceCents int64
	logger     *slog.Logger
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(payments *payment.Client, baseURL string, priceCents int64, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		payments:   payments,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		priceCents: priceCents,
		logger:     logger,
	}
}

// Create starts a checkout session for the authenticated user and returns
// the provider's redirect URL. The purchaser's email is pinned into the
// session metadata so the completion webhook can resolve identity.
//
// POST /api/checkout
func (h *CheckoutHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal := session.PrincipalFromContext(r.Context())
	if principal == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
		return
	}

	if principal.IsPremium {
		writeError(w, http.StatusConflict, "ALREADY_PREMIUM", "account already has an active subscription")
		return
	}

	params := payment.CheckoutParams{
		CustomerEmail: principal.Email,
		PriceCents:    h.priceCents,
		ProductName:   proProductName,
		SuccessURL:    h.baseURL + "/dashboard?upgraded=1",
		CancelURL:     h.baseURL + "/pricing",
	}

	checkout, err := h.payments.CreateCheckoutSession(r.Context(), params)
	if err != nil {
		h.logger.Error("checkout session creation failed",
			slog.String("request_id", middleware.GetRequestID(r.Context())),
			slog.String("email", principal.Email),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "CHECKOUT_FAILED", "could not start checkout")
		return
	}

	h.logger.Info("checkout session created",
		slog.String("request_id", middleware.GetRequestID(r.Context())),
		slog.String("email", principal.Email),
		slog.String("session_id", checkout.ID),
	)

	writeJSON(w, http.StatusCreated, dto.CheckoutResponse{
		SessionID:   checkout.ID,
		CheckoutURL: checkout.URL,
	})
}
