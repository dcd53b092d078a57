package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const resetTokenBytes = 32

// generateResetToken creates a cryptographically random 256-bit token,
// hex-encoded to 64 characters.
func generateResetToken() (string, error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
