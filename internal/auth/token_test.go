package auth

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateResetToken(t *testing.T) {
	token, err := generateResetToken()
	require.NoError(t, err)

	assert.Len(t, token, 64)

	decoded, err := hex.DecodeString(token)
	require.NoError(t, err)
	assert.Len(t, decoded, 32)
}

func TestGenerateResetToken_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := generateResetToken()
		require.NoError(t, err)
		assert.False(t, seen[token], "token generated twice")
		seen[token] = true
	}
}
