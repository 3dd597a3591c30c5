package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/christopher639/cbc-scholar-hub-sub002/internal/model"
)

// restoreTimeout bounds the remote validation on process start; the
// caller falls back to unauthenticated instead of hanging.
const restoreTimeout = 5 * time.Second

// ErrNoCachedToken is returned by Restore when no self-issued token is
// persisted locally. Callers should then check for a provider session
// instead of treating the user as logged out of everything.
var ErrNoCachedToken = errors.New("session: no cached token")

// Validator is the remote check a cached token must pass before the
// identity is trusted again.
type Validator interface {
	Validate(ctx context.Context, token string) (model.Identity, error)
}

// ClientCache persists the self-issued token across process restarts
// and rebuilds the authenticated identity on start.
type ClientCache struct {
	path      string
	validator Validator
}

// NewClientCache creates a cache storing the token at path.
func NewClientCache(path string, validator Validator) *ClientCache {
	return &ClientCache{path: path, validator: validator}
}

// Save persists the token. Overwrites any previous one.
func (c *ClientCache) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	if err := os.WriteFile(c.path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	return nil
}

// Evict removes the persisted token. Safe to call when nothing is
// cached.
func (c *ClientCache) Evict() {
	_ = os.Remove(c.path)
}

// Restore loads the persisted token and validates it remotely with a
// bounded timeout. Expired or revoked tokens are evicted; any other
// failure leaves the token in place and reports unauthenticated so a
// transient outage does not log the user out permanently.
func (c *ClientCache) Restore(ctx context.Context) (model.Identity, string, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return model.Identity{}, "", ErrNoCachedToken
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return model.Identity{}, "", ErrNoCachedToken
	}

	vctx, cancel := context.WithTimeout(ctx, restoreTimeout)
	defer cancel()

	identity, err := c.validator.Validate(vctx, token)
	if err != nil {
		if errors.Is(err, ErrExpired) || errors.Is(err, ErrNotFound) {
			c.Evict()
		}
		return model.Identity{}, "", err
	}
	return identity, token, nil
}
