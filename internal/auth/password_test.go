package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher_RoundTrip(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("abcde")
	require.NoError(t, err)

	assert.NotEqual(t, "abcde", hash)
	assert.True(t, strings.HasPrefix(hash, "$2"))
	assert.True(t, hasher.Check("abcde", hash))
}

func TestPasswordHasher_WrongPassword(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("abcde")
	require.NoError(t, err)

	assert.False(t, hasher.Check("wrong", hash))
	assert.False(t, hasher.Check("", hash))
	assert.False(t, hasher.Check("Abcde", hash))
}

func TestPasswordHasher_SaltedHashesDiffer(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	first, err := hasher.Hash("abcde")
	require.NoError(t, err)
	second, err := hasher.Hash("abcde")
	require.NoError(t, err)

	// bcrypt salts internally, so equal plaintexts never share a hash.
	assert.NotEqual(t, first, second)
	assert.True(t, hasher.Check("abcde", first))
	assert.True(t, hasher.Check("abcde", second))
}

func TestNewPasswordHasher_ClampsInvalidCost(t *testing.T) {
	hasher := NewPasswordHasher(99)
	assert.Equal(t, DefaultBcryptCost, hasher.cost)

	hasher = NewPasswordHasher(-1)
	assert.Equal(t, DefaultBcryptCost, hasher.cost)
}
