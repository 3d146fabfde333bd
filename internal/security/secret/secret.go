// Package secret hashes and verifies client secrets with bcrypt.
package secret

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrEmpty is returned when hashing an empty secret.
var ErrEmpty = errors.New("empty secret")

// Hash returns the bcrypt hash of plain at the default cost.
func Hash(plain string) (string, error) {
	if plain == "" {
		return "", ErrEmpty
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether plain matches the stored hash.
func Verify(plain, hash string) bool {
	if plain == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
