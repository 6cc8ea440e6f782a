package auth

import (
	"crypto/rand"
	"encoding/base64"
)

// NewVerificationToken returns a random single-use token for email
// verification (43 url-safe chars).
func NewVerificationToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
