// Package session issues and validates self-issued bearer sessions.
// Provider-delegated (admin) logins never touch this package; their
// session lives with the primary identity provider.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/christopher639/cbc-scholar-hub-sub002/internal/model"
)

const sessionKeyPrefix = "sess:"

var (
	// ErrNotFound is returned when no record exists for the token.
	ErrNotFound = errors.New("session: not found")
	// ErrExpired is returned when the record exists but its absolute
	// TTL has passed.
	ErrExpired = errors.New("session: expired")
)

// Store is the key-value contract for session records: one record per
// token, no cross-token coordination.
type Store interface {
	Insert(ctx context.Context, s model.Session) error
	Find(ctx context.Context, token string) (model.Session, error)
	Delete(ctx context.Context, token string) error
}

type redisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Store backed by Redis. The record's absolute
// expiry doubles as the Redis TTL, so expired sessions age out on
// their own.
func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client}
}

func sessionKey(token string) string {
	return sessionKeyPrefix + token
}

func (s *redisStore) Insert(ctx context.Context, sess model.Session) error {
	encoded, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session already expired at insert")
	}
	if err := s.client.Set(ctx, sessionKey(sess.Token), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (s *redisStore) Find(ctx context.Context, token string) (model.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.Session{}, ErrNotFound
		}
		return model.Session{}, fmt.Errorf("find session: %w", err)
	}
	var sess model.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return model.Session{}, fmt.Errorf("decode session: %w", err)
	}
	return sess, nil
}

func (s *redisStore) Delete(ctx context.Context, token string) error {
	// Idempotent: deleting a missing key is not an error.
	if err := s.client.Del(ctx, sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
