package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christopher639/cbc-scholar-hub-sub002/internal/model"
	"github.com/christopher639/cbc-scholar-hub-sub002/internal/provider"
	"github.com/christopher639/cbc-scholar-hub-sub002/internal/session"
)

const testSecret = "provider-shared-secret"

type fakeSessions struct {
	identity model.Identity
	err      error
}

func (f *fakeSessions) Validate(ctx context.Context, token string) (model.Identity, error) {
	if f.err != nil {
		return model.Identity{}, f.err
	}
	return f.identity, nil
}

func newProtected(sessions SessionValidator) (http.Handler, *model.Identity) {
	var seen model.Identity
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := GetIdentity(r.Context())
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		seen = identity
		w.WriteHeader(http.StatusOK)
	})
	return AuthMiddleware(sessions, provider.NewBearerVerifier(testSecret))(handler), &seen
}

func doAuth(t *testing.T, handler http.Handler, authHeader string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddlewareSelfIssuedToken(t *testing.T) {
	learner := model.Learner{ID: uuid.New(), AdmissionNumber: "ADM-1"}
	identity := model.Identity{Role: model.RoleLearner, Learner: &learner}
	handler, seen := newProtected(&fakeSessions{identity: identity})

	rec := doAuth(t, handler, "Bearer some-opaque-token")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.RoleLearner, seen.Role)
}

func TestAuthMiddlewareProviderJWTFallback(t *testing.T) {
	claims := provider.BearerClaims{
		Email: "head@school.example",
		Role:  "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "acc-1",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	handler, seen := newProtected(&fakeSessions{err: session.ErrNotFound})
	rec := doAuth(t, handler, "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.RoleAdmin, seen.Role)
	assert.Equal(t, "acc-1", seen.Primary.ID)
}

func TestAuthMiddlewareRejectsGarbage(t *testing.T) {
	handler, _ := newProtected(&fakeSessions{err: session.ErrNotFound})

	for _, header := range []string{"", "Bearer ", "Token abc", "Bearer not-a-session-not-a-jwt"} {
		rec := doAuth(t, handler, header)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
	}
}

func TestAuthMiddlewareUpstreamOutage(t *testing.T) {
	handler, _ := newProtected(&fakeSessions{err: errors.New("store unreachable")})
	rec := doAuth(t, handler, "Bearer some-token")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(time.Minute, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("ip:1.2.3.4"), "request %d should pass", i)
	}
	assert.False(t, rl.Allow("ip:1.2.3.4"), "fourth request should be limited")
	assert.True(t, rl.Allow("ip:5.6.7.8"), "other keys are independent")
}
