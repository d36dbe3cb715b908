package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// CSRFGenerator generates and validates CSRF tokens using HMAC-SHA256.
// Tokens are derived deterministically from the session id and a secret
// key, so no server-side token store is required and validation works
// the same across replicas.
type CSRFGenerator struct {
	secret []byte
}

// NewCSRFGenerator creates a stateless HMAC-based CSRF generator
func NewCSRFGenerator(secret string) *CSRFGenerator {
	return &CSRFGenerator{secret: []byte(secret)}
}

// TokenFor returns the CSRF token bound to the given session id
func (g *CSRFGenerator) TokenFor(sessionID string) (string, error) {
	if sessionID == "" {
		return "", errors.New("session id is required")
	}
	mac := hmac.New(sha256.New, g.secret)
	mac.Write([]byte(sessionID))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Verify reports whether token is the valid CSRF token for sessionID
func (g *CSRFGenerator) Verify(sessionID, token string) bool {
	if sessionID == "" || token == "" {
		return false
	}
	expected, err := g.TokenFor(sessionID)
	if err != nil {
		return false
	}
	return hmac.Equal([]byte(expected), []byte(token))
}
