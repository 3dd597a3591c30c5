// Package notify sends out-of-band messages through the external
// notification gateway. Only the per-channel ok/fail outcome matters
// to callers; message formatting stays with the gateway.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

// ErrUnavailable is returned when the gateway cannot be reached after
// retries.
var ErrUnavailable = errors.New("notify: gateway unavailable")

// Dispatcher is the delivery contract. A nil error means the channel
// accepted the message.
type Dispatcher interface {
	SendSMS(ctx context.Context, e164Number, text string) error
	SendEmail(ctx context.Context, address, subject, body string) error
}

// HTTPDispatcher delivers through the gateway's REST endpoints.
type HTTPDispatcher struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewHTTPDispatcher creates a dispatcher for the given gateway.
func NewHTTPDispatcher(baseURL, apiKey string) *HTTPDispatcher {
	return &HTTPDispatcher{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type smsPayload struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

type emailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// SendSMS delivers a text message to an E.164 number.
func (d *HTTPDispatcher) SendSMS(ctx context.Context, e164Number, text string) error {
	return d.post(ctx, "/v1/sms", smsPayload{To: e164Number, Text: text})
}

// SendEmail delivers an email.
func (d *HTTPDispatcher) SendEmail(ctx context.Context, address, subject, body string) error {
	return d.post(ctx, "/v1/email", emailPayload{To: address, Subject: subject, Body: body})
}

func (d *HTTPDispatcher) post(ctx context.Context, path string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	backoff := retry.WithMaxRetries(2, retry.NewConstant(300*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		if d.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+d.apiKey)
		}

		resp, err := d.http.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return retry.RetryableError(fmt.Errorf("gateway returned %d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
			return fmt.Errorf("gateway returned %d", resp.StatusCode)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
