package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassphrase(t *testing.T) {
	// MinCost keeps the test fast; production uses the default cost.
	hash, err := HashPassphrase("p1", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "p1", hash)

	assert.True(t, VerifyPassphrase("p1", hash))
	assert.False(t, VerifyPassphrase("wrong", hash))
	assert.False(t, VerifyPassphrase("", hash))
	assert.False(t, VerifyPassphrase("p1 ", hash))
}

func TestHashPassphrase_Salted(t *testing.T) {
	a, err := HashPassphrase("same", bcrypt.MinCost)
	require.NoError(t, err)
	b, err := HashPassphrase("same", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "per-hash salt must vary the output")
}

func TestVerifyPassphrase_GarbageHash(t *testing.T) {
	assert.False(t, VerifyPassphrase("p1", "not a bcrypt hash"))
}
