package services

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCodeVerifier(t *testing.T) {
	t.Run("is 64 hex characters", func(t *testing.T) {
		verifier, err := generateCodeVerifier()
		require.NoError(t, err)

		assert.Len(t, verifier, 64)
		decoded, err := hex.DecodeString(verifier)
		require.NoError(t, err, "verifier should be valid hex")
		assert.Len(t, decoded, codeVerifierBytes)
	})

	t.Run("generates unique verifiers", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 100; i++ {
			verifier, err := generateCodeVerifier()
			require.NoError(t, err)
			assert.False(t, seen[verifier], "should not generate duplicate verifiers")
			seen[verifier] = true
		}
	})
}

func TestGenerateCodeChallenge(t *testing.T) {
	t.Run("is base64url(sha256(verifier)) without padding", func(t *testing.T) {
		verifier, err := generateCodeVerifier()
		require.NoError(t, err)

		challenge := generateCodeChallenge(verifier)
		sum := sha256.Sum256([]byte(verifier))
		assert.Equal(t, base64.RawURLEncoding.EncodeToString(sum[:]), challenge)

		assert.False(t, strings.ContainsAny(challenge, "=+/"), "must be unpadded base64url")
	})

	t.Run("is deterministic for a fixed verifier", func(t *testing.T) {
		verifier := strings.Repeat("ab", 32)
		assert.Equal(t, generateCodeChallenge(verifier), generateCodeChallenge(verifier))
	})

	t.Run("decodes to a 32-byte digest", func(t *testing.T) {
		decoded, err := base64.RawURLEncoding.DecodeString(generateCodeChallenge("verifier"))
		require.NoError(t, err)
		assert.Len(t, decoded, sha256.Size)
	})
}

func TestGenerateState(t *testing.T) {
	state1, err := generateState()
	require.NoError(t, err)
	state2, err := generateState()
	require.NoError(t, err)

	assert.NotEqual(t, state1, state2, "consecutive states must differ")

	decoded, err := base64.RawURLEncoding.DecodeString(state1)
	require.NoError(t, err)
	assert.Len(t, decoded, 32)
}
