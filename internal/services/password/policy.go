// Package password implements the account password policy: strength
// validation plus bcrypt hashing and verification.
package password

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// HashCost is the bcrypt cost factor used for all stored credentials.
const HashCost = 12

// SpecialChars is the accepted special-character set for strength checks.
const SpecialChars = "!@#$%^&*()-_=+[]{}|;:,.<>?/~`"

var (
	// ErrHashing indicates the underlying crypto failed while hashing.
	ErrHashing = errors.New("failed to hash password")
	// ErrMalformedHash indicates the stored hash could not be parsed. This is
	// data corruption, not a normal wrong-password rejection.
	ErrMalformedHash = errors.New("stored password hash is malformed")
)

// ValidateStrength reports whether a password meets the minimum requirements:
// at least 8 characters with an uppercase letter, a lowercase letter, a digit
// and a special character.
func ValidateStrength(password string) bool {
	if len(password) < 8 {
		return false
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, c := range password {
		switch {
		case unicode.IsUpper(c):
			hasUpper = true
		case unicode.IsLower(c):
			hasLower = true
		case unicode.IsDigit(c):
			hasDigit = true
		case strings.ContainsRune(SpecialChars, c):
			hasSpecial = true
		}
	}

	return hasUpper && hasLower && hasDigit && hasSpecial
}

// Hash generates a salted bcrypt hash of the password.
func Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), HashCost)
	if err != nil {
		return "", ErrHashing
	}
	return string(hashed), nil
}

// Verify checks a plaintext password against a stored hash. A wrong password
// returns (false, nil); an error is returned only when the stored hash itself
// is unusable.
func Verify(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, ErrMalformedHash
}
