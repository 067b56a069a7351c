// Package password hashes and verifies account passwords with bcrypt.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// MinCost is the lowest work factor accepted for new hashes.
	MinCost     = 10
	DefaultCost = 12
)

var ErrEmptyPassword = errors.New("password is empty")

// dummyHash is compared against when no account matches, so an unknown email
// costs the same bcrypt work as a wrong password.
var dummyHash = mustHash("jobboard-dummy-password", MinCost)

// Hash returns a bcrypt hash of plaintext. Costs below MinCost are raised.
func Hash(plaintext string, cost int) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPassword
	}
	if cost < MinCost {
		cost = MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether plaintext matches storedHash. A malformed or empty
// hash is simply a mismatch.
func Verify(plaintext, storedHash string) bool {
	if storedHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(plaintext)) == nil
}

// VerifyDummy burns one comparison against a fixed hash and always fails.
func VerifyDummy(plaintext string) bool {
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(plaintext))
	return false
}

// Cost reports the work factor a hash was created with.
func Cost(storedHash string) (int, error) {
	return bcrypt.Cost([]byte(storedHash))
}

func mustHash(plaintext string, cost int) []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		panic(err)
	}
	return hash
}
