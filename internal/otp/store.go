// Package otp implements the step-up verification challenge: a
// one-time numeric code delivered out-of-band and verified server-side.
package otp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/christopher639/cbc-scholar-hub-sub002/internal/model"
)

const challengeKeyPrefix = "otp:"

// ErrNoActiveChallenge is returned when no unexpired, unconsumed
// challenge exists for the owner.
var ErrNoActiveChallenge = errors.New("otp: no active challenge")

// Store keeps at most one active challenge per owner. A new challenge
// replaces the previous one; the record's expiry is the Redis TTL.
type Store interface {
	Put(ctx context.Context, c model.OTPChallenge) error
	GetByOwner(ctx context.Context, role model.Role, ownerID string) (model.OTPChallenge, error)
	Update(ctx context.Context, c model.OTPChallenge) error
	Delete(ctx context.Context, role model.Role, ownerID string) error
}

type redisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Store backed by Redis.
func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client}
}

func challengeKey(role model.Role, ownerID string) string {
	return challengeKeyPrefix + string(role) + ":" + ownerID
}

func (s *redisStore) Put(ctx context.Context, c model.OTPChallenge) error {
	encoded, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode challenge: %w", err)
	}
	ttl := time.Until(c.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("challenge already expired at insert")
	}
	if err := s.client.Set(ctx, challengeKey(c.Role, c.OwnerID), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("store challenge: %w", err)
	}
	return nil
}

func (s *redisStore) GetByOwner(ctx context.Context, role model.Role, ownerID string) (model.OTPChallenge, error) {
	data, err := s.client.Get(ctx, challengeKey(role, ownerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.OTPChallenge{}, ErrNoActiveChallenge
		}
		return model.OTPChallenge{}, fmt.Errorf("find challenge: %w", err)
	}
	var c model.OTPChallenge
	if err := json.Unmarshal(data, &c); err != nil {
		return model.OTPChallenge{}, fmt.Errorf("decode challenge: %w", err)
	}
	return c, nil
}

// Update rewrites the record without touching its remaining TTL.
func (s *redisStore) Update(ctx context.Context, c model.OTPChallenge) error {
	encoded, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode challenge: %w", err)
	}
	err = s.client.Set(ctx, challengeKey(c.Role, c.OwnerID), encoded, redis.KeepTTL).Err()
	if err != nil {
		return fmt.Errorf("update challenge: %w", err)
	}
	return nil
}

func (s *redisStore) Delete(ctx context.Context, role model.Role, ownerID string) error {
	if err := s.client.Del(ctx, challengeKey(role, ownerID)).Err(); err != nil {
		return fmt.Errorf("delete challenge: %w", err)
	}
	return nil
}
