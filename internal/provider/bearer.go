package provider

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/christopher639/cbc-scholar-hub-sub002/internal/model"
)

// BearerClaims are the claims carried by the provider's session token.
type BearerClaims struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// BearerVerifier checks bearer tokens minted by the primary identity
// provider. The provider signs HS256 with a secret shared with this
// service; nothing here can mint such a token.
type BearerVerifier struct {
	secret []byte
}

// NewBearerVerifier creates a verifier for the provider-shared secret.
func NewBearerVerifier(secret string) *BearerVerifier {
	return &BearerVerifier{secret: []byte(secret)}
}

// Verify parses and validates a provider bearer token and returns the
// principal it represents.
func (v *BearerVerifier) Verify(tokenString string) (model.PrimaryAccount, error) {
	token, err := jwt.ParseWithClaims(tokenString, &BearerClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return model.PrimaryAccount{}, fmt.Errorf("failed to parse provider token: %w", err)
	}

	claims, ok := token.Claims.(*BearerClaims)
	if !ok || !token.Valid {
		return model.PrimaryAccount{}, fmt.Errorf("invalid provider token")
	}

	return toPrimaryAccount(accountResponse{
		ID:    claims.Subject,
		Email: claims.Email,
		Role:  claims.Role,
	}), nil
}
