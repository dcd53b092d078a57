package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@x.com", NormalizeEmail("  A@X.Com "))
	assert.Equal(t, "a@x.com", NormalizeEmail("a@x.com"))
}

func TestValidateCredentials(t *testing.T) {
	tests := []struct {
		name      string
		email     string
		password  string
		wantEmail string
		wantErrs  int
	}{
		{"valid", "a@x.com", "abcde", "a@x.com", 0},
		{"valid mixed case email", "A@X.com", "abc123", "a@x.com", 0},
		{"empty email", "", "abcde", "", 1},
		{"malformed email", "not-an-email", "abcde", "not-an-email", 1},
		{"short password", "a@x.com", "abcd", "a@x.com", 1},
		{"overlong password", "a@x.com", strings.Repeat("a1", 40), "a@x.com", 1},
		{"longest allowed password", "a@x.com", strings.Repeat("a1", 36), "a@x.com", 0},
		{"non-alphanumeric password", "a@x.com", "abc de!", "a@x.com", 1},
		{"both invalid", "nope", "x", "nope", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotEmail, errs := ValidateCredentials(tt.email, tt.password)
			assert.Equal(t, tt.wantEmail, gotEmail)
			assert.Len(t, errs, tt.wantErrs)
		})
	}
}

func TestValidateSignup_ConfirmMismatch(t *testing.T) {
	_, errs := ValidateSignup("a@x.com", "abcde", "abcdf")
	assert.Len(t, errs, 1)
	assert.Contains(t, errs[0], "match")

	_, errs = ValidateSignup("a@x.com", "abcde", "abcde")
	assert.Empty(t, errs)
}

func TestValidateNewPassword(t *testing.T) {
	assert.Empty(t, ValidateNewPassword("abcde"))
	assert.Empty(t, ValidateNewPassword("Abc123XYZ"))
	assert.Empty(t, ValidateNewPassword(strings.Repeat("a1", 36)))
	assert.Len(t, ValidateNewPassword("abcd"), 1)
	assert.Len(t, ValidateNewPassword(strings.Repeat("a1", 40)), 1)
	assert.Len(t, ValidateNewPassword("abc e"), 1)
	assert.Len(t, ValidateNewPassword(""), 1)
}
