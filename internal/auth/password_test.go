package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter2-but-longer")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2-but-longer", hash)

	assert.True(t, VerifyPassword(hash, "hunter2-but-longer"))
	assert.False(t, VerifyPassword(hash, "wrong-password"))
}

func TestHashPassword_DistinctSalts(t *testing.T) {
	first, err := HashPassword("same-password")
	require.NoError(t, err)
	second, err := HashPassword("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestVerifyPassword_GarbageHash(t *testing.T) {
	assert.False(t, VerifyPassword("not-a-bcrypt-hash", "anything"))
}

func TestNewCSRFToken(t *testing.T) {
	token, err := NewCSRFToken()
	require.NoError(t, err)
	assert.Len(t, token, csrfTokenBytes*2)

	other, err := NewCSRFToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestTokensEqual(t *testing.T) {
	assert.True(t, TokensEqual("abc123", "abc123"))
	assert.False(t, TokensEqual("abc123", "abc124"))
	assert.False(t, TokensEqual("", ""))
	assert.False(t, TokensEqual("abc123", ""))
}
