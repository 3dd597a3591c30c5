package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christopher639/cbc-scholar-hub-sub002/internal/directory"
	"github.com/christopher639/cbc-scholar-hub-sub002/internal/model"
)

// fakeLoader serves identities from memory, standing in for the
// directory store.
type fakeLoader struct {
	learners map[string]model.Learner
}

func (f *fakeLoader) LoadByID(ctx context.Context, role model.Role, ownerID string) (model.Identity, error) {
	if role == model.RoleLearner {
		if l, ok := f.learners[ownerID]; ok {
			return model.Identity{Role: model.RoleLearner, Learner: &l}, nil
		}
	}
	return model.Identity{}, fmt.Errorf("%w: %s", directory.ErrNotFound, ownerID)
}

func newTestStore(t *testing.T) Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client)
}

func testLearner() (model.Learner, model.Identity) {
	learner := model.Learner{
		ID:              uuid.New(),
		AdmissionNumber: "ADM-0042",
		BirthCertNumber: "BC1234",
		FullName:        "Test Learner",
	}
	return learner, model.Identity{Role: model.RoleLearner, Learner: &learner}
}

func TestIssueThenValidate(t *testing.T) {
	learner, identity := testLearner()
	loader := &fakeLoader{learners: map[string]model.Learner{learner.ID.String(): learner}}
	issuer := NewIssuer(newTestStore(t), loader)

	sess, err := issuer.Issue(context.Background(), identity)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, model.RoleLearner, sess.Role)
	assert.WithinDuration(t, time.Now().Add(TTL), sess.ExpiresAt, 5*time.Second)

	got, err := issuer.Validate(context.Background(), sess.Token)
	require.NoError(t, err)
	assert.Equal(t, identity.OwnerID(), got.OwnerID())
	assert.Equal(t, model.RoleLearner, got.Role)
}

func TestValidateExpiredSession(t *testing.T) {
	learner, identity := testLearner()
	loader := &fakeLoader{learners: map[string]model.Learner{learner.ID.String(): learner}}
	issuer := NewIssuer(newTestStore(t), loader)

	sess, err := issuer.Issue(context.Background(), identity)
	require.NoError(t, err)

	// Force the record past its absolute expiry; the store record may
	// still exist because the Redis TTL has slack.
	issuer.now = func() time.Time { return time.Now().Add(TTL + time.Minute) }

	_, err = issuer.Validate(context.Background(), sess.Token)
	assert.ErrorIs(t, err, ErrExpired)

	// The expired record was destroyed during validation.
	issuer.now = time.Now
	_, err = issuer.Validate(context.Background(), sess.Token)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestValidateUnknownToken(t *testing.T) {
	issuer := NewIssuer(newTestStore(t), &fakeLoader{})
	_, err := issuer.Validate(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRevokeIsIdempotent(t *testing.T) {
	learner, identity := testLearner()
	loader := &fakeLoader{learners: map[string]model.Learner{learner.ID.String(): learner}}
	issuer := NewIssuer(newTestStore(t), loader)

	sess, err := issuer.Issue(context.Background(), identity)
	require.NoError(t, err)

	require.NoError(t, issuer.Revoke(context.Background(), sess.Token))
	require.NoError(t, issuer.Revoke(context.Background(), sess.Token))

	_, err = issuer.Validate(context.Background(), sess.Token)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestValidateFailsWhenOwnerDeleted(t *testing.T) {
	learner, identity := testLearner()
	loader := &fakeLoader{learners: map[string]model.Learner{learner.ID.String(): learner}}
	issuer := NewIssuer(newTestStore(t), loader)

	sess, err := issuer.Issue(context.Background(), identity)
	require.NoError(t, err)

	// Learner removed from the directory after issuance.
	delete(loader.learners, learner.ID.String())

	_, err = issuer.Validate(context.Background(), sess.Token)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGenerateTokenIsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := GenerateToken()
		require.NoError(t, err)
		assert.False(t, seen[token], "token collision")
		seen[token] = true
	}
}
