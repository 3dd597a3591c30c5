// Package provider talks to the primary identity provider that owns
// administrator accounts. Password verification and session lifecycle
// happen inside the provider; this service only reads back the
// authenticated principal and its role tag.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/christopher639/cbc-scholar-hub-sub002/internal/model"
)

var (
	// ErrInvalidCredential is returned when the provider rejects the
	// presented password.
	ErrInvalidCredential = errors.New("provider: invalid credential")
	// ErrNotFound is returned when no provider account matches.
	ErrNotFound = errors.New("provider: account not found")
	// ErrUnavailable is returned when the provider cannot be reached
	// after retries. Callers should surface it as retryable.
	ErrUnavailable = errors.New("provider: unavailable")
)

// Client is an HTTP client for the primary identity provider.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a provider client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type accountResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// SignIn delegates password verification to the provider and returns
// the authenticated principal with its role tag.
func (c *Client) SignIn(ctx context.Context, email, password string) (model.PrimaryAccount, error) {
	body, err := json.Marshal(signInRequest{Email: email, Password: password})
	if err != nil {
		return model.PrimaryAccount{}, fmt.Errorf("marshal sign-in request: %w", err)
	}

	var account accountResponse
	err = c.do(ctx, http.MethodPost, "/auth/sign_in", body, &account)
	if err != nil {
		return model.PrimaryAccount{}, err
	}
	return toPrimaryAccount(account), nil
}

// GetByEmail looks up a provider account by email in the provider's
// own user directory.
func (c *Client) GetByEmail(ctx context.Context, email string) (model.PrimaryAccount, error) {
	var account accountResponse
	err := c.do(ctx, http.MethodGet, "/users/by_email/"+url.PathEscape(email), nil, &account)
	if err != nil {
		return model.PrimaryAccount{}, err
	}
	return toPrimaryAccount(account), nil
}

// do performs one provider call with bounded retry on transport and
// 5xx failures. 401/404 are terminal and map to sentinel errors.
func (c *Client) do(ctx context.Context, method, path string, body []byte, out interface{}) error {
	backoff := retry.WithMaxRetries(3, retry.NewConstant(250*time.Millisecond))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var reader *bytes.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		} else {
			reader = bytes.NewReader(nil)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			return ErrInvalidCredential
		case resp.StatusCode == http.StatusNotFound:
			return ErrNotFound
		case resp.StatusCode >= 500:
			return retry.RetryableError(fmt.Errorf("provider returned %d", resp.StatusCode))
		case resp.StatusCode != http.StatusOK:
			return fmt.Errorf("provider returned %d", resp.StatusCode)
		}

		return json.NewDecoder(resp.Body).Decode(out)
	})
	if err != nil {
		if errors.Is(err, ErrInvalidCredential) || errors.Is(err, ErrNotFound) {
			return err
		}
		// Anything that survived the retry budget is an upstream outage
		// from the caller's point of view.
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func toPrimaryAccount(a accountResponse) model.PrimaryAccount {
	role := model.Role(a.Role)
	if role == "" {
		role = model.RoleAdmin
	}
	return model.PrimaryAccount{ID: a.ID, Email: a.Email, Role: role}
}
