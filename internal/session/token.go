package session

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// GenerateToken returns an opaque 32-byte random token, Base64URL
// encoded. The token is the session key; it carries no claims.
func GenerateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
