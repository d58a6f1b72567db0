package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// PKCE code verifier entropy in bytes. Hex encoding yields 64 characters,
// within the 43-128 range RFC 7636 requires.
const codeVerifierBytes = 32

// generateCodeVerifier creates a cryptographically random PKCE code
// verifier, hex-encoded.
func generateCodeVerifier() (string, error) {
	buf := make([]byte, codeVerifierBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// generateCodeChallenge creates the S256 code challenge for a verifier:
// base64url without padding over the SHA-256 digest.
func generateCodeChallenge(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}

// generateState creates a random state parameter for CSRF protection.
func generateState() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
