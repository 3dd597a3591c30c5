package otp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christopher639/cbc-scholar-hub-sub002/internal/config"
	"github.com/christopher639/cbc-scholar-hub-sub002/internal/model"
	"github.com/christopher639/cbc-scholar-hub-sub002/internal/phone"
)

const testSalt = "test-otp-salt"

// fakeDispatcher records deliveries and fails on demand.
type fakeDispatcher struct {
	smsErr   error
	emailErr error
	smsTo    []string
	emailTo  []string
}

func (f *fakeDispatcher) SendSMS(ctx context.Context, e164Number, text string) error {
	if f.smsErr != nil {
		return f.smsErr
	}
	f.smsTo = append(f.smsTo, e164Number)
	return nil
}

func (f *fakeDispatcher) SendEmail(ctx context.Context, address, subject, body string) error {
	if f.emailErr != nil {
		return f.emailErr
	}
	f.emailTo = append(f.emailTo, address)
	return nil
}

func newTestService(t *testing.T, dispatcher *fakeDispatcher) (*Service, Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	store := NewRedisStore(client)
	return NewService(store, dispatcher, phone.NewNormalizer("254"), testSalt), store
}

func learnerIdentity(contact model.Contact) model.Identity {
	return model.Identity{
		Role: model.RoleLearner,
		Learner: &model.Learner{
			ID:              uuid.New(),
			AdmissionNumber: "ADM-0042",
			BirthCertNumber: "BC1234",
			FullName:        "Test Learner",
			GuardianContact: contact,
		},
	}
}

func TestChallengeBothChannelsPartialFailure(t *testing.T) {
	dispatcher := &fakeDispatcher{smsErr: errors.New("gateway down")}
	svc, _ := newTestService(t, dispatcher)
	identity := learnerIdentity(model.Contact{Phone: "0712345678", Email: "guardian@example.com"})

	receipt, err := svc.Challenge(context.Background(), identity, config.ChannelBoth)
	require.NoError(t, err, "one surviving channel is a success")
	assert.Equal(t, []string{ChannelEmail}, receipt.SentChannels)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), receipt.ExpiresAt, 5*time.Second)
}

func TestChallengeAllChannelsFailed(t *testing.T) {
	dispatcher := &fakeDispatcher{smsErr: errors.New("down"), emailErr: errors.New("down")}
	svc, store := newTestService(t, dispatcher)
	identity := learnerIdentity(model.Contact{Phone: "0712345678", Email: "guardian@example.com"})

	_, err := svc.Challenge(context.Background(), identity, config.ChannelBoth)
	assert.ErrorIs(t, err, ErrAllChannelsFailed)

	// Fail closed: no challenge persisted, nothing to verify against.
	_, err = store.GetByOwner(context.Background(), identity.Role, identity.OwnerID())
	assert.ErrorIs(t, err, ErrNoActiveChallenge)
}

func TestChallengeNoContactFailsClosed(t *testing.T) {
	svc, _ := newTestService(t, &fakeDispatcher{})
	identity := learnerIdentity(model.Contact{})

	_, err := svc.Challenge(context.Background(), identity, config.ChannelBoth)
	assert.ErrorIs(t, err, ErrAllChannelsFailed)
}

func TestChallengeInvalidPhoneExcludesSMSChannel(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	svc, _ := newTestService(t, dispatcher)
	identity := learnerIdentity(model.Contact{Phone: "071", Email: "guardian@example.com"})

	receipt, err := svc.Challenge(context.Background(), identity, config.ChannelBoth)
	require.NoError(t, err)
	assert.Equal(t, []string{ChannelEmail}, receipt.SentChannels)
	assert.Empty(t, dispatcher.smsTo, "invalid number must not reach the gateway")
}

func TestChallengeNormalizesSMSNumber(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	svc, _ := newTestService(t, dispatcher)
	identity := learnerIdentity(model.Contact{Phone: "0712345678"})

	receipt, err := svc.Challenge(context.Background(), identity, config.ChannelSMS)
	require.NoError(t, err)
	assert.Equal(t, []string{ChannelSMS}, receipt.SentChannels)
	require.Len(t, dispatcher.smsTo, 1)
	assert.Equal(t, "254712345678", dispatcher.smsTo[0])
}

// seedChallenge stores a challenge with a known code, the way
// Challenge would have.
func seedChallenge(t *testing.T, store Store, identity model.Identity, code string, expiresIn time.Duration) {
	t.Helper()
	now := time.Now()
	err := store.Put(context.Background(), model.OTPChallenge{
		ID:                uuid.New(),
		OwnerID:           identity.OwnerID(),
		Role:              identity.Role,
		CodeHash:          hashCode(identity.OwnerID(), code, testSalt),
		CreatedAt:         now,
		ExpiresAt:         now.Add(expiresIn),
		ChannelsAttempted: []string{ChannelEmail},
		ChannelsSucceeded: []string{ChannelEmail},
	})
	require.NoError(t, err)
}

func TestVerifyIsSingleUse(t *testing.T) {
	svc, store := newTestService(t, &fakeDispatcher{})
	identity := learnerIdentity(model.Contact{Email: "guardian@example.com"})
	seedChallenge(t, store, identity, "123456", 5*time.Minute)

	require.NoError(t, svc.Verify(context.Background(), identity.Role, identity.OwnerID(), "123456"))

	err := svc.Verify(context.Background(), identity.Role, identity.OwnerID(), "123456")
	assert.ErrorIs(t, err, ErrInvalidCode, "a consumed code must not verify again")
}

func TestVerifyWrongCode(t *testing.T) {
	svc, store := newTestService(t, &fakeDispatcher{})
	identity := learnerIdentity(model.Contact{Email: "guardian@example.com"})
	seedChallenge(t, store, identity, "123456", 5*time.Minute)

	err := svc.Verify(context.Background(), identity.Role, identity.OwnerID(), "654321")
	assert.ErrorIs(t, err, ErrInvalidCode)

	// The right code still works after a wrong guess.
	require.NoError(t, svc.Verify(context.Background(), identity.Role, identity.OwnerID(), "123456"))
}

func TestVerifyWithoutChallenge(t *testing.T) {
	svc, _ := newTestService(t, &fakeDispatcher{})
	identity := learnerIdentity(model.Contact{})

	err := svc.Verify(context.Background(), identity.Role, identity.OwnerID(), "123456")
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestVerifyExpiredChallenge(t *testing.T) {
	svc, store := newTestService(t, &fakeDispatcher{})
	identity := learnerIdentity(model.Contact{Email: "guardian@example.com"})
	seedChallenge(t, store, identity, "123456", time.Minute)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	err := svc.Verify(context.Background(), identity.Role, identity.OwnerID(), "123456")
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestVerifyAttemptLimit(t *testing.T) {
	svc, store := newTestService(t, &fakeDispatcher{})
	identity := learnerIdentity(model.Contact{Email: "guardian@example.com"})
	seedChallenge(t, store, identity, "123456", 5*time.Minute)

	for i := 0; i < maxAttempts-1; i++ {
		err := svc.Verify(context.Background(), identity.Role, identity.OwnerID(), "000000")
		assert.ErrorIs(t, err, ErrInvalidCode)
	}

	// Attempts exhausted; even the right code is rejected now.
	err := svc.Verify(context.Background(), identity.Role, identity.OwnerID(), "123456")
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestGenerateCodeRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := generateCode()
		require.NoError(t, err)
		require.Len(t, code, 6)
		assert.GreaterOrEqual(t, code, "100000")
		assert.LessOrEqual(t, code, "999999")
	}
}
