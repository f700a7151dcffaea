package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// HTTP client timeouts for provider API calls.
const (
	clientTimeout         = 30 * time.Second
	dialTimeout           = 10 * time.Second
	tlsHandshakeTimeout   = 10 * time.Second
	responseHeaderTimeout = 15 * time.Second
)

// maxAPIAttempts bounds retries for transient provider failures.
const maxAPIAttempts = 3

// retryBaseDelay is the delay before the first retry; subsequent retries
// double it.
const retryBaseDelay = 200 * time.Millisecond

var (
	// ErrCustomerNotFound is returned when the provider has no such customer.
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrMissingSecretKey is returned when the API secret key is not configured.
	ErrMissingSecretKey = errors.New("payment secret key is not configured")
)

// APIError is a non-2xx response from the provider API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider API error: status %d: %s", e.StatusCode, e.Body)
}

// Client calls the payment provider's REST API.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

// NewClient creates a provider API client. Returns an error if the secret
// key is absent so a misconfigured process fails at startup rather than on
// the first checkout.
func NewClient(baseURL, secretKey string) (*Client, error) {
	if secretKey == "" {
		return nil, ErrMissingSecretKey
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		secretKey:  secretKey,
		httpClient: newHTTPClient(),
	}, nil
}

// newHTTPClient creates an HTTP client configured for provider API calls.
// It has conservative timeouts and does not follow redirects.
func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: clientTimeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   dialTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   tlsHandshakeTimeout,
			ResponseHeaderTimeout: responseHeaderTimeout,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// RetrieveCustomer fetches a customer record by its provider reference.
// Used by the webhook handler when an event carries no email directly.
func (c *Client) RetrieveCustomer(ctx context.Context, customerID string) (*Customer, error) {
	var customer Customer
	err := c.doJSON(ctx, http.MethodGet, "/v1/customers/"+customerID, nil, &customer)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("retrieve customer %s: %w", customerID, err)
	}
	return &customer, nil
}

// CheckoutParams describes a checkout session to create.
type CheckoutParams struct {
	CustomerEmail string `json:"customer_email"`
	PriceCents    int64  `json:"price_cents"`
	ProductName   string `json:"product_name"`
	SuccessURL    string `json:"success_url"`
	CancelURL     string `json:"cancel_url"`
	// Metadata must include MetadataUserEmail so the completed-checkout
	// webhook can resolve identity without ambiguity.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// CreateCheckoutSession creates a hosted checkout session and returns it,
// including the redirect URL for the purchaser.
func (c *Client) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error) {
	if params.Metadata == nil {
		params.Metadata = map[string]string{}
	}
	if _, ok := params.Metadata[MetadataUserEmail]; !ok {
		params.Metadata[MetadataUserEmail] = params.CustomerEmail
	}

	var session CheckoutSession
	if err := c.doJSON(ctx, http.MethodPost, "/v1/checkout/sessions", params, &session); err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return &session, nil
}

// doJSON performs an authenticated JSON request with bounded retries on
// network errors and 5xx responses.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt < maxAPIAttempts; attempt++ {
		if attempt > 0 {
			delay := retryBaseDelay << (attempt - 1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.secretKey)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = &APIError{StatusCode: resp.StatusCode, Body: truncate(string(respBody), 256)}
			continue
		}

		if resp.StatusCode >= 400 {
			return &APIError{StatusCode: resp.StatusCode, Body: truncate(string(respBody), 256)}
		}

		if out != nil {
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
		}
		return nil
	}

	return lastErr
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
