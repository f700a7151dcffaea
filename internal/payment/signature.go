package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SignatureHeader carries the webhook signature, formatted as
// "t=<unix>,v1=<hex hmac>". The HMAC-SHA256 canonical string is
// "{timestamp}.{rawBody}".
const SignatureHeader = "X-Payment-Signature"

// DefaultReplayWindow is the default tolerance for the signed timestamp.
const DefaultReplayWindow = 5 * time.Minute

var (
	// ErrMalformedSignature is returned when the header cannot be parsed.
	ErrMalformedSignature = errors.New("malformed signature header")
	// ErrInvalidSignature is returned when signature verification fails.
	ErrInvalidSignature = errors.New("invalid signature")
	// ErrReplayWindowExceeded is returned when the timestamp is outside the replay window.
	ErrReplayWindowExceeded = errors.New("timestamp outside replay window")
)

// Sign creates the signature header value for a payload. Used by tests and
// by fixtures that simulate provider deliveries.
func Sign(secret string, timestamp int64, body []byte) string {
	return fmt.Sprintf("t=%d,v1=%s", timestamp, computeSignature(secret, timestamp, body))
}

// VerifySignature checks a webhook signature header against the raw request
// body and the shared signing secret, with replay protection.
func VerifySignature(secret, header string, body []byte, replayWindow time.Duration) error {
	timestamp, signature, err := parseSignatureHeader(header)
	if err != nil {
		return err
	}

	now := time.Now().Unix()
	if abs(now-timestamp) > int64(replayWindow.Seconds()) {
		return ErrReplayWindowExceeded
	}

	expected := computeSignature(secret, timestamp, body)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}

	return nil
}

// VerifyAndParse verifies the signature and decodes the event in one step.
func VerifyAndParse(secret, header string, body []byte, replayWindow time.Duration) (*Event, error) {
	if err := VerifySignature(secret, header, body, replayWindow); err != nil {
		return nil, err
	}
	return ParseEvent(body)
}

// computeSignature builds the HMAC-SHA256 over "{timestamp}.{body}".
func computeSignature(secret string, timestamp int64, body []byte) string {
	canonical := fmt.Sprintf("%d.%s", timestamp, string(body))
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(canonical))
	return hex.EncodeToString(mac.Sum(nil))
}

// parseSignatureHeader splits "t=<unix>,v1=<hex>" into its parts.
func parseSignatureHeader(header string) (timestamp int64, signature string, err error) {
	if header == "" {
		return 0, "", ErrMalformedSignature
	}

	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			return 0, "", ErrMalformedSignature
		}
		switch key {
		case "t":
			timestamp, err = strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, "", ErrMalformedSignature
			}
		case "v1":
			signature = value
		}
	}

	if timestamp == 0 || signature == "" {
		return 0, "", ErrMalformedSignature
	}

	return timestamp, signature, nil
}

func abs(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}
