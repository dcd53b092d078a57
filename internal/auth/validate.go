package auth

import (
	"net/mail"
	"strings"
)

const (
	minPasswordLength = 5
	// bcrypt rejects inputs longer than 72 bytes, so the bound has to be
	// enforced here to keep it a form error rather than a hashing failure.
	maxPasswordLength = 72
)

// NormalizeEmail canonicalizes an email for storage and lookup: trimmed and
// lowercased. Lookups always go through the same normalization, so case
// variants of one address map to one account.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validEmail reports whether the (already normalized) email is well-formed.
func validEmail(email string) bool {
	if email == "" || len(email) > 254 {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// validPassword enforces the storefront password rule: 5 to 72 characters,
// letters and digits only.
func validPassword(password string) bool {
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return false
	}
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// ValidateCredentials checks the login/signup email+password shape and
// returns the normalized email plus field-level error messages. An empty
// slice means the input passed.
func ValidateCredentials(email, password string) (string, []string) {
	var errs []string

	normalized := NormalizeEmail(email)
	if !validEmail(normalized) {
		errs = append(errs, "Please enter a valid email address.")
	}
	if !validPassword(password) {
		errs = append(errs, "Password must be 5 to 72 characters long and contain only letters and numbers.")
	}

	return normalized, errs
}

// ValidateSignup runs the credential checks plus the confirmation match.
func ValidateSignup(email, password, confirmPassword string) (string, []string) {
	normalized, errs := ValidateCredentials(email, password)
	if password != confirmPassword {
		errs = append(errs, "Passwords have to match.")
	}
	return normalized, errs
}

// ValidateNewPassword checks only the password rule, for reset completion.
func ValidateNewPassword(password string) []string {
	if !validPassword(password) {
		return []string{"Password must be 5 to 72 characters long and contain only letters and numbers."}
	}
	return nil
}
