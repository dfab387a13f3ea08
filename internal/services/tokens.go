package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

const (
	sessionTokenPrefix = "sess_"
	userIDPrefix       = "user_"
)

// newSessionToken returns an unguessable session credential.
func newSessionToken() (string, error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return sessionTokenPrefix + base64.RawURLEncoding.EncodeToString(rawBytes), nil
}

// HashToken returns the digest under which a session token is stored.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}

func newUserID() string {
	id := uuid.New()
	return userIDPrefix + hex.EncodeToString(id[:])[:12]
}
