package otp

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/christopher639/cbc-scholar-hub-sub002/internal/config"
	"github.com/christopher639/cbc-scholar-hub-sub002/internal/model"
	"github.com/christopher639/cbc-scholar-hub-sub002/internal/notify"
	"github.com/christopher639/cbc-scholar-hub-sub002/internal/phone"
)

const (
	codeMin         = 100000
	codeSpan        = 900000
	challengeExpiry = 5 * time.Minute
	maxAttempts     = 5
)

const (
	// ChannelSMS and ChannelEmail name the delivery channels in
	// challenge receipts.
	ChannelSMS   = "sms"
	ChannelEmail = "email"
)

var (
	// ErrAllChannelsFailed means no enabled channel delivered the code.
	// Fail closed: the enclosing flow must stop, never treat the
	// principal as verified.
	ErrAllChannelsFailed = errors.New("otp: all delivery channels failed")
	// ErrInvalidCode is returned for a wrong, expired, exhausted or
	// already consumed code.
	ErrInvalidCode = errors.New("otp: invalid or expired code")
)

// Receipt reports a dispatched challenge. The code itself is never
// part of the receipt; verification is a separate server-side call.
type Receipt struct {
	ChallengeID  uuid.UUID
	SentChannels []string
	ExpiresAt    time.Time
}

// Service generates challenges, fans delivery out across the
// configured channels and verifies submitted codes.
type Service struct {
	store      Store
	dispatcher notify.Dispatcher
	normalizer *phone.Normalizer
	salt       string
	now        func() time.Time
}

// NewService creates the challenge service.
func NewService(store Store, dispatcher notify.Dispatcher, normalizer *phone.Normalizer, salt string) *Service {
	return &Service{
		store:      store,
		dispatcher: dispatcher,
		normalizer: normalizer,
		salt:       salt,
		now:        time.Now,
	}
}

// Challenge generates a 6-digit code, persists its hash and attempts
// delivery on every channel the policy enables. Success needs at least
// one channel to deliver; anything less fails the whole operation.
func (s *Service) Challenge(ctx context.Context, identity model.Identity, policy config.ChannelPolicy) (Receipt, error) {
	code, err := generateCode()
	if err != nil {
		return Receipt{}, fmt.Errorf("generate code: %w", err)
	}

	now := s.now()
	challenge := model.OTPChallenge{
		ID:        uuid.New(),
		OwnerID:   identity.OwnerID(),
		Role:      identity.Role,
		CodeHash:  hashCode(identity.OwnerID(), code, s.salt),
		CreatedAt: now,
		ExpiresAt: now.Add(challengeExpiry),
	}

	contact := identity.Contact()
	var attempted, succeeded []string

	if policy == config.ChannelSMS || policy == config.ChannelBoth {
		if number, ok := s.smsTarget(contact.Phone); ok {
			attempted = append(attempted, ChannelSMS)
			text := fmt.Sprintf("Your verification code is %s. It expires in 5 minutes.", code)
			if err := s.dispatcher.SendSMS(ctx, number, text); err != nil {
				log.Printf("OTP sms delivery failed for %s %s: %v", identity.Role, identity.OwnerID(), err)
			} else {
				succeeded = append(succeeded, ChannelSMS)
			}
		}
	}

	if policy == config.ChannelEmail || policy == config.ChannelBoth {
		if contact.Email != "" {
			attempted = append(attempted, ChannelEmail)
			body := fmt.Sprintf("Your verification code is %s. It expires in 5 minutes.", code)
			if err := s.dispatcher.SendEmail(ctx, contact.Email, "Your verification code", body); err != nil {
				log.Printf("OTP email delivery failed for %s %s: %v", identity.Role, identity.OwnerID(), err)
			} else {
				succeeded = append(succeeded, ChannelEmail)
			}
		}
	}

	if len(succeeded) == 0 {
		return Receipt{}, ErrAllChannelsFailed
	}

	challenge.ChannelsAttempted = attempted
	challenge.ChannelsSucceeded = succeeded
	if err := s.store.Put(ctx, challenge); err != nil {
		return Receipt{}, fmt.Errorf("persist challenge: %w", err)
	}

	return Receipt{
		ChallengeID:  challenge.ID,
		SentChannels: succeeded,
		ExpiresAt:    challenge.ExpiresAt,
	}, nil
}

// Verify compares a submitted code against the stored challenge. A
// challenge is single-use: the first successful verification consumes
// it.
func (s *Service) Verify(ctx context.Context, role model.Role, ownerID, code string) error {
	challenge, err := s.store.GetByOwner(ctx, role, ownerID)
	if err != nil {
		if errors.Is(err, ErrNoActiveChallenge) {
			return ErrInvalidCode
		}
		return err
	}

	if challenge.Consumed || !s.now().Before(challenge.ExpiresAt) {
		return ErrInvalidCode
	}

	challenge.Attempts++
	if challenge.Attempts >= maxAttempts {
		challenge.Consumed = true
		_ = s.store.Update(ctx, challenge)
		return ErrInvalidCode
	}
	if err := s.store.Update(ctx, challenge); err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}

	provided := hashCode(ownerID, code, s.salt)
	if subtle.ConstantTimeCompare(provided, challenge.CodeHash) != 1 {
		return ErrInvalidCode
	}

	challenge.Consumed = true
	if err := s.store.Update(ctx, challenge); err != nil {
		return fmt.Errorf("consume challenge: %w", err)
	}
	return nil
}

// smsTarget normalizes the phone number; invalid numbers exclude the
// SMS channel without failing the whole challenge.
func (s *Service) smsTarget(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	number, err := s.normalizer.Normalize(raw)
	if err != nil {
		log.Printf("OTP sms channel skipped: %v", err)
		return "", false
	}
	return number, true
}

// generateCode returns a uniformly random 6-digit code.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpan))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+codeMin), nil
}

// hashCode returns SHA-256(owner:code:salt) for storage; the plaintext
// code is never persisted.
func hashCode(ownerID, code, salt string) []byte {
	sum := sha256.Sum256([]byte(ownerID + ":" + code + ":" + salt))
	return sum[:]
}
