package cryptox

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSalt(t *testing.T) {
	a, err := GenerateSalt()
	require.NoError(t, err)
	b, err := GenerateSalt()
	require.NoError(t, err)

	assert.Len(t, a, saltSize*2)
	_, err = hex.DecodeString(a)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestHashPassword_Deterministic(t *testing.T) {
	d1 := HashPassword("secret123", "salt-a")
	d2 := HashPassword("secret123", "salt-a")
	assert.Equal(t, d1, d2)
}

func TestHashPassword_SaltChangesDigest(t *testing.T) {
	d1 := HashPassword("secret123", "salt-a")
	d2 := HashPassword("secret123", "salt-b")
	assert.NotEqual(t, d1, d2)
}

func TestVerifyPassword(t *testing.T) {
	salt, err := GenerateSalt()
	require.NoError(t, err)
	digest := HashPassword("secret123", salt)

	assert.True(t, VerifyPassword("secret123", salt, digest))
	assert.False(t, VerifyPassword("wrong", salt, digest))
	assert.False(t, VerifyPassword("secret123", "other-salt", digest))
}
