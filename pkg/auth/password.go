package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrWeakPassword is returned when a password fails the minimum policy.
var ErrWeakPassword = errors.New("password must be at least 8 characters")

const minPasswordLength = 8

// ValidatePassword enforces the registration password policy.
func ValidatePassword(plain string) error {
	if len(plain) < minPasswordLength {
		return ErrWeakPassword
	}
	return nil
}

// HashPassword derives a bcrypt hash at the default cost.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether plain matches the stored hash.
func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
