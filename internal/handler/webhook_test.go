package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/majorload/majorload/internal/cache"
	"github.com/majorload/majorload/internal/entitlement"
	"github.com/majorload/majorload/internal/metrics"
	"github.com/majorload/majorload/internal/model"
	"github.com/majorload/majorload/internal/payment"
	"github.com/majorload/majorload/internal/repository"
)

const webhookTestSecret = "whsec_handler_test"

// memStore is an in-memory entitlement store.
type memStore struct {
	mu       sync.Mutex
	premium  map[string]bool
	writes   int
	writeErr error
}

func newMemStore() *memStore {
	return &memStore{premium: make(map[string]bool)}
}

func (s *memStore) GetUserPremium(ctx context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	premium, ok := s.premium[email]
	if !ok {
		return false, repository.ErrUserNotFound
	}
	return premium, nil
}

func (s *memStore) SetUserPremium(ctx context.Context, email string, premium bool) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	if s.writeErr != nil {
		return nil, s.writeErr
	}
	s.premium[email] = premium
	return &model.User{Email: email, IsPremium: premium}, nil
}

func (s *memStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// fakeCustomers serves canned customer lookups.
type fakeCustomers struct {
	customers map[string]string // id -> email
	calls     int
}

func (f *fakeCustomers) RetrieveCustomer(ctx context.Context, customerID string) (*payment.Customer, error) {
	f.calls++
	email, ok := f.customers[customerID]
	if !ok {
		return nil, payment.ErrCustomerNotFound
	}
	return &payment.Customer{ID: customerID, Email: email}, nil
}

type webhookFixture struct {
	handler      *WebhookHandler
	store        *memStore
	entitlements *entitlement.Service
	customers    *fakeCustomers
	recorder     *metrics.InMemoryRecorder
	memCache     *cache.Memory
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := newMemStore()
	memCache := cache.NewMemory(time.Hour)
	t.Cleanup(memCache.Close)

	recorder := metrics.NewInMemory()
	svc := entitlement.New(store, memCache, 30*time.Second, logger, recorder)
	customers := &fakeCustomers{customers: make(map[string]string)}

	return &webhookFixture{
		handler:      NewWebhookHandler(webhookTestSecret, svc, customers, logger, recorder),
		store:        store,
		entitlements: svc,
		customers:    customers,
		recorder:     recorder,
		memCache:     memCache,
	}
}

func signedRequest(t *testing.T, secret string, body []byte) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewReader(body))
	req.Header.Set(payment.SignatureHeader, payment.Sign(secret, time.Now().Unix(), body))
	return req
}

func checkoutEvent(t *testing.T, mutate func(*payment.Event)) []byte {
	t.Helper()
	event := payment.Event{
		ID:   "evt_1",
		Type: payment.EventCheckoutCompleted,
		Data: payment.EventData{
			Object: payment.CheckoutSession{
				ID:            "cs_1",
				CustomerEmail: "carrier@example.com",
			},
		},
	}
	if mutate != nil {
		mutate(&event)
	}
	body, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return body
}

func TestWebhook_ActivatesPremium(t *testing.T) {
	t.Parallel()

	f := newWebhookFixture(t)
	body := checkoutEvent(t, nil)

	rec := httptest.NewRecorder()
	f.handler.HandleEvent(rec, signedRequest(t, webhookTestSecret, body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}
	if !f.entitlements.IsPremium(context.Background(), "carrier@example.com") {
		t.Error("premium flag not visible after activation")
	}
	if got := f.recorder.Snapshot().WebhookEvents[metrics.WebhookOutcomeActivated]; got != 1 {
		t.Errorf("activated count = %d, want 1", got)
	}
}

func TestWebhook_BadSignatureRejectedWithoutWrite(t *testing.T) {
	t.Parallel()

	f := newWebhookFixture(t)
	body := checkoutEvent(t, nil)

	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"wrong_secret", payment.Sign("whsec_other", time.Now().Unix(), body)},
		{"stale_timestamp", payment.Sign(webhookTestSecret, time.Now().Add(-time.Hour).Unix(), body)},
		{"garbage", "not-a-signature"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewReader(body))
			if test.header != "" {
				req.Header.Set(payment.SignatureHeader, test.header)
			}

			rec := httptest.NewRecorder()
			f.handler.HandleEvent(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}

	if f.store.writeCount() != 0 {
		t.Errorf("store writes = %d, want 0 for rejected events", f.store.writeCount())
	}
}

func TestWebhook_TamperedBodyRejected(t *testing.T) {
	t.Parallel()

	f := newWebhookFixture(t)
	body := checkoutEvent(t, nil)
	header := payment.Sign(webhookTestSecret, time.Now().Unix(), body)

	tampered := bytes.Replace(body, []byte("carrier@example.com"), []byte("mallory@example.com"), 1)

	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewReader(tampered))
	req.Header.Set(payment.SignatureHeader, header)

	rec := httptest.NewRecorder()
	f.handler.HandleEvent(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for tampered body", rec.Code)
	}
	if f.store.writeCount() != 0 {
		t.Error("tampered event reached the store")
	}
}

func TestWebhook_IgnoresOtherEventTypes(t *testing.T) {
	t.Parallel()

	f := newWebhookFixture(t)
	body := checkoutEvent(t, func(e *payment.Event) {
		e.Type = "invoice.paid"
	})

	rec := httptest.NewRecorder()
	f.handler.HandleEvent(rec, signedRequest(t, webhookTestSecret, body))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 ack for irrelevant event", rec.Code)
	}
	if f.store.writeCount() != 0 {
		t.Error("irrelevant event caused a store write")
	}
	if got := f.recorder.Snapshot().WebhookEvents[metrics.WebhookOutcomeIgnored]; got != 1 {
		t.Errorf("ignored count = %d, want 1", got)
	}
}

func TestWebhook_EmailResolutionPrecedence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		mutate      func(*payment.Event)
		customer    map[string]string
		wantEmail   string
		wantLookups int
	}{
		{
			name:      "customer_email_wins",
			mutate:    nil,
			wantEmail: "carrier@example.com",
		},
		{
			name: "metadata_fallback",
			mutate: func(e *payment.Event) {
				e.Data.Object.CustomerEmail = ""
				e.Data.Object.Metadata = map[string]string{payment.MetadataUserEmail: "meta@example.com"}
			},
			wantEmail: "meta@example.com",
		},
		{
			name: "customer_lookup_fallback",
			mutate: func(e *payment.Event) {
				e.Data.Object.CustomerEmail = ""
				e.Data.Object.Customer = "cus_42"
			},
			customer:    map[string]string{"cus_42": "lookup@example.com"},
			wantEmail:   "lookup@example.com",
			wantLookups: 1,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			f := newWebhookFixture(t)
			if test.customer != nil {
				f.customers.customers = test.customer
			}

			body := checkoutEvent(t, test.mutate)
			rec := httptest.NewRecorder()
			f.handler.HandleEvent(rec, signedRequest(t, webhookTestSecret, body))

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			if !f.entitlements.IsPremium(context.Background(), test.wantEmail) {
				t.Errorf("premium not granted to %s", test.wantEmail)
			}
			if f.customers.calls != test.wantLookups {
				t.Errorf("customer lookups = %d, want %d", f.customers.calls, test.wantLookups)
			}
		})
	}
}

func TestWebhook_NoResolvableEmailAcknowledged(t *testing.T) {
	t.Parallel()

	f := newWebhookFixture(t)
	body := checkoutEvent(t, func(e *payment.Event) {
		e.Data.Object.CustomerEmail = ""
		e.Data.Object.Metadata = nil
		e.Data.Object.Customer = ""
	})

	rec := httptest.NewRecorder()
	f.handler.HandleEvent(rec, signedRequest(t, webhookTestSecret, body))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 ack so the provider stops retrying", rec.Code)
	}
	if f.store.writeCount() != 0 {
		t.Error("event without identity caused a store write")
	}
	if got := f.recorder.Snapshot().WebhookEvents[metrics.WebhookOutcomeSkipped]; got != 1 {
		t.Errorf("skipped count = %d, want 1", got)
	}
}

func TestWebhook_WriteFailureReturns500ForRetry(t *testing.T) {
	t.Parallel()

	f := newWebhookFixture(t)
	f.store.writeErr = errors.New("connection refused")

	body := checkoutEvent(t, nil)
	rec := httptest.NewRecorder()
	f.handler.HandleEvent(rec, signedRequest(t, webhookTestSecret, body))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500 so the provider redelivers", rec.Code)
	}

	// Redelivery after the store recovers succeeds.
	f.store.mu.Lock()
	f.store.writeErr = nil
	f.store.mu.Unlock()

	rec = httptest.NewRecorder()
	f.handler.HandleEvent(rec, signedRequest(t, webhookTestSecret, body))

	if rec.Code != http.StatusOK {
		t.Fatalf("redelivery status = %d, want 200", rec.Code)
	}
	if !f.entitlements.IsPremium(context.Background(), "carrier@example.com") {
		t.Error("premium not granted after redelivery")
	}
}

func TestWebhook_RedeliveryIsIdempotent(t *testing.T) {
	t.Parallel()

	f := newWebhookFixture(t)
	body := checkoutEvent(t, nil)

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		f.handler.HandleEvent(rec, signedRequest(t, webhookTestSecret, body))
		if rec.Code != http.StatusOK {
			t.Fatalf("delivery %d: status = %d, want 200", i+1, rec.Code)
		}
	}

	if !f.entitlements.IsPremium(context.Background(), "carrier@example.com") {
		t.Error("premium not active after redeliveries")
	}
	if f.store.writeCount() != 3 {
		t.Errorf("store writes = %d, want 3 upserts converging on the same state", f.store.writeCount())
	}
}

func TestWebhook_MissingSecretRefusesEvents(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	memCache := cache.NewMemory(time.Hour)
	t.Cleanup(memCache.Close)
	svc := entitlement.New(newMemStore(), memCache, time.Second, logger, nil)

	h := NewWebhookHandler("", svc, nil, logger, nil)

	body := checkoutEvent(t, nil)
	rec := httptest.NewRecorder()
	h.HandleEvent(rec, signedRequest(t, webhookTestSecret, body))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500 when signing is not configured", rec.Code)
	}
}

func TestWebhook_MalformedPayloadAfterValidSignature(t *testing.T) {
	t.Parallel()

	f := newWebhookFixture(t)
	body := []byte("{not json")

	rec := httptest.NewRecorder()
	f.handler.HandleEvent(rec, signedRequest(t, webhookTestSecret, body))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for unparseable payload", rec.Code)
	}
}

// TestWebhook_UpgradeFlow walks the full purchase path: a free user is gated
// out, checkout completes, and the next entitlement read sees premium.
func TestWebhook_UpgradeFlow(t *testing.T) {
	t.Parallel()

	f := newWebhookFixture(t)
	ctx := context.Background()

	// Seed a free account the way registration would.
	f.store.premium["carrier@example.com"] = false

	if f.entitlements.IsPremium(ctx, "carrier@example.com") {
		t.Fatal("account is premium before checkout")
	}

	body := checkoutEvent(t, func(e *payment.Event) {
		e.ID = fmt.Sprintf("evt_%d", time.Now().UnixNano())
	})
	rec := httptest.NewRecorder()
	f.handler.HandleEvent(rec, signedRequest(t, webhookTestSecret, body))
	if rec.Code != http.StatusOK {
		t.Fatalf("webhook status = %d, want 200", rec.Code)
	}

	// The activation invalidated the cached negative entry, so the next
	// read observes premium without waiting out the TTL.
	if !f.entitlements.IsPremium(ctx, "carrier@example.com") {
		t.Error("premium not visible immediately after activation")
	}
}
