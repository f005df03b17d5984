package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// sessionTokenBytes yields 256 bits of entropy per token.
const sessionTokenBytes = 32

// GenerateSessionToken returns an opaque URL-safe random token. The token
// is an unguessable credential resolved by exact database lookup; it
// carries no claims and cannot be validated offline.
func GenerateSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
