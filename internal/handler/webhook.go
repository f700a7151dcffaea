package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/majorload/majorload/internal/entitlement"
	"github.com/majorload/majorload/internal/metrics"
	"github.com/majorload/majorload/internal/middleware"
	"github.com/majorload/majorload/internal/payment"
)

// maxWebhookBody bounds the raw payload read for signature verification.
const maxWebhookBody = 1 << 20 // 1MB

// CustomerRetriever fetches a provider customer record. Implemented by
// *payment.Client.
type CustomerRetriever interface {
	RetrieveCustomer(ctx context.Context, customerID string) (*payment.Customer, error)
}

// WebhookHandler receives payment provider events and activates premium
// entitlement for completed checkouts. The provider redelivers any event
// that is not acknowledged with a 2xx, so the handler is idempotent: the
// entitlement write is an upsert and replayed activations converge on the
// same state.
type WebhookHandler struct {
	secret       string
	replayWindow time.Duration
	entitlements *entitlement.Service
	customers    CustomerRetriever
	logger       *slog.Logger
	metrics      metrics.Recorder
}

// NewWebhookHandler creates a new WebhookHandler. The customers client may
// be nil; email resolution then stops at the event payload.
func NewWebhookHandler(secret string, entitlements *entitlement.Service, customers CustomerRetriever, logger *slog.Logger, recorder metrics.Recorder) *WebhookHandler {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &WebhookHandler{
		secret:       secret,
		replayWindow: payment.DefaultReplayWindow,
		entitlements: entitlements,
		customers:    customers,
		logger:       logger,
		metrics:      recorder,
	}
}

// HandleEvent processes an inbound provider event.
//
// POST /api/payments/webhook
func (h *WebhookHandler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	if h.secret == "" {
		// Without the signing secret no event can be trusted. Refuse with
		// a 5xx so the provider retries once the secret is configured.
		h.logger.Error("webhook secret not configured", slog.String("request_id", requestID))
		h.metrics.IncWebhookEvent(metrics.WebhookOutcomeFailed)
		writeError(w, http.StatusInternalServerError, "NOT_CONFIGURED", "webhook signing is not configured")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.logger.Warn("webhook body read failed",
			slog.String("request_id", requestID),
			slog.String("error", err.Error()),
		)
		h.metrics.IncWebhookEvent(metrics.WebhookOutcomeRejected)
		writeError(w, http.StatusBadRequest, "BAD_BODY", "could not read request body")
		return
	}

	header := r.Header.Get(payment.SignatureHeader)
	if err := payment.VerifySignature(h.secret, header, body, h.replayWindow); err != nil {
		h.logger.Warn("webhook signature rejected",
			slog.String("request_id", requestID),
			slog.String("error", err.Error()),
		)
		h.metrics.IncWebhookEvent(metrics.WebhookOutcomeRejected)
		writeError(w, http.StatusBadRequest, "BAD_SIGNATURE", "signature verification failed")
		return
	}

	event, err := payment.ParseEvent(body)
	if err != nil {
		h.logger.Warn("webhook payload unparseable",
			slog.String("request_id", requestID),
			slog.String("error", err.Error()),
		)
		h.metrics.IncWebhookEvent(metrics.WebhookOutcomeRejected)
		writeError(w, http.StatusBadRequest, "BAD_PAYLOAD", "could not parse event")
		return
	}

	if event.Type != payment.EventCheckoutCompleted {
		// Verified but irrelevant. Acknowledge so the provider stops
		// redelivering it.
		h.metrics.IncWebhookEvent(metrics.WebhookOutcomeIgnored)
		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	email := h.resolveEmail(r.Context(), event)
	if email == "" {
		// No identity to grant entitlement to. A retry would fail the same
		// way, so acknowledge and record the skip for investigation.
		h.logger.Warn("checkout completed without resolvable email",
			slog.String("request_id", requestID),
			slog.String("event_id", event.ID),
			slog.String("session_id", event.Data.Object.ID),
		)
		h.metrics.IncWebhookEvent(metrics.WebhookOutcomeSkipped)
		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	if _, err := h.entitlements.SetPremium(r.Context(), email, true); err != nil {
		// Not acknowledged: the provider redelivers and the activation is
		// retried. The upsert makes the redelivery safe.
		h.logger.Error("premium activation failed",
			slog.String("request_id", requestID),
			slog.String("event_id", event.ID),
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		h.metrics.IncWebhookEvent(metrics.WebhookOutcomeFailed)
		writeError(w, http.StatusInternalServerError, "ACTIVATION_FAILED", "could not record entitlement")
		return
	}

	h.logger.Info("premium activated from checkout",
		slog.String("request_id", requestID),
		slog.String("event_id", event.ID),
		slog.String("email", email),
	)
	h.metrics.IncWebhookEvent(metrics.WebhookOutcomeActivated)
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

// resolveEmail extracts the purchaser's email from a completed checkout.
// Precedence: the session's customer_email, then the userEmail metadata set
// at session creation, then a customer lookup against the provider API.
func (h *WebhookHandler) resolveEmail(ctx context.Context, event *payment.Event) string {
	obj := event.Data.Object

	if obj.CustomerEmail != "" {
		return obj.CustomerEmail
	}
	if email := obj.Metadata[payment.MetadataUserEmail]; email != "" {
		return email
	}
	if obj.Customer != "" && h.customers != nil {
		customer, err := h.customers.RetrieveCustomer(ctx, obj.Customer)
		if err != nil {
			h.logger.Warn("customer lookup failed",
				slog.String("event_id", event.ID),
				slog.String("customer_id", obj.Customer),
				slog.String("error", err.Error()),
			)
			return ""
		}
		return customer.Email
	}

	return ""
}
