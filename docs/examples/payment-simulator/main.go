// MajorLOAD Payment Event Simulator
//
// Signs and delivers a checkout.session.completed event to a local API
// server, the same way the payment provider would. Useful for exercising
// the premium activation flow without a real checkout.
//
// Usage:
//   export PAYMENT_WEBHOOK_SECRET="whsec_your_secret_here"
//   go run main.go -email carrier@example.com
//   go run main.go -email carrier@example.com -url http://localhost:8080/api/payments/webhook

package main

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

type event struct {
	ID   string    `json:"id"`
	Type string    `json:"type"`
	Data eventData `json:"data"`
}

type eventData struct {
	Object checkoutSession `json:"object"`
}

type checkoutSession struct {
	ID            string            `json:"id"`
	CustomerEmail string            `json:"customer_email,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

func main() {
	var (
		email     = flag.String("email", "", "Purchaser email to activate")
		url       = flag.String("url", "http://localhost:8080/api/payments/webhook", "Webhook endpoint")
		eventType = flag.String("type", "checkout.session.completed", "Event type to send")
		viaMeta   = flag.Bool("metadata-only", false, "Carry the email only in metadata, not customer_email")
	)
	flag.Parse()

	secret := os.Getenv("PAYMENT_WEBHOOK_SECRET")
	if secret == "" {
		log.Fatal("PAYMENT_WEBHOOK_SECRET environment variable is required")
	}
	if *email == "" {
		log.Fatal("-email is required")
	}

	session := checkoutSession{
		ID: fmt.Sprintf("cs_sim_%d", time.Now().Unix()),
	}
	if *viaMeta {
		session.Metadata = map[string]string{"userEmail": *email}
	} else {
		session.CustomerEmail = *email
	}

	body, err := json.Marshal(event{
		ID:   fmt.Sprintf("evt_sim_%d", time.Now().UnixNano()),
		Type: *eventType,
		Data: eventData{Object: session},
	})
	if err != nil {
		log.Fatalf("marshal event: %v", err)
	}

	timestamp := time.Now().Unix()
	req, err := http.NewRequest(http.MethodPost, *url, bytes.NewReader(body))
	if err != nil {
		log.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Payment-Signature", sign(secret, timestamp, body))

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("deliver event: %v", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	log.Printf("delivered %s for %s", *eventType, *email)
	log.Printf("response: %d %s", resp.StatusCode, bytes.TrimSpace(respBody))
}

// sign builds the signature header.
//
// Header format: t=1705142400,v1=abc123def456...
// Signed payload: {timestamp}.{body}
func sign(secret string, timestamp int64, body []byte) string {
	signedPayload := fmt.Sprintf("%d.%s", timestamp, body)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signedPayload))
	return fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}
