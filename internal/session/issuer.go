package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/christopher639/cbc-scholar-hub-sub002/internal/directory"
	"github.com/christopher639/cbc-scholar-hub-sub002/internal/model"
)

// TTL is the absolute session lifetime from issuance. Sessions are not
// renewed on use.
const TTL = 24 * time.Hour

// IdentityLoader re-fetches the directory record owning a session, so
// a record deleted after issuance fails validation before expiry.
type IdentityLoader interface {
	LoadByID(ctx context.Context, role model.Role, ownerID string) (model.Identity, error)
}

// Issuer mints, validates and revokes self-issued sessions.
type Issuer struct {
	store  Store
	loader IdentityLoader
	now    func() time.Time
}

// NewIssuer creates an Issuer over the given store and identity loader.
func NewIssuer(store Store, loader IdentityLoader) *Issuer {
	return &Issuer{store: store, loader: loader, now: time.Now}
}

// Issue mints an opaque token for the identity and persists the
// session record with a 24h absolute expiry.
func (i *Issuer) Issue(ctx context.Context, identity model.Identity) (model.Session, error) {
	token, err := GenerateToken()
	if err != nil {
		return model.Session{}, err
	}

	now := i.now()
	sess := model.Session{
		Token:     token,
		OwnerID:   identity.OwnerID(),
		Role:      identity.Role,
		IssuedAt:  now,
		ExpiresAt: now.Add(TTL),
	}
	if err := i.store.Insert(ctx, sess); err != nil {
		return model.Session{}, fmt.Errorf("issue session: %w", err)
	}
	return sess, nil
}

// Validate looks up the session record and re-fetches the owning
// identity. An expired record is destroyed on the way out.
func (i *Issuer) Validate(ctx context.Context, token string) (model.Identity, error) {
	sess, err := i.store.Find(ctx, token)
	if err != nil {
		return model.Identity{}, err
	}

	if !i.now().Before(sess.ExpiresAt) {
		// The store's TTL usually beats us here; destroy the record if
		// it has not aged out yet.
		_ = i.store.Delete(ctx, token)
		return model.Identity{}, ErrExpired
	}

	identity, err := i.loader.LoadByID(ctx, sess.Role, sess.OwnerID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			// Owner vanished from the directory since issuance.
			_ = i.store.Delete(ctx, token)
			return model.Identity{}, ErrNotFound
		}
		return model.Identity{}, fmt.Errorf("validate session owner: %w", err)
	}
	return identity, nil
}

// Revoke deletes the session record. Revoking an unknown token is a
// no-op.
func (i *Issuer) Revoke(ctx context.Context, token string) error {
	if err := i.store.Delete(ctx, token); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

