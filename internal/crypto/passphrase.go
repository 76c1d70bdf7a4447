package crypto

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost balances hashing latency against brute-force resistance.
const DefaultBcryptCost = bcrypt.DefaultCost

// HashPassphrase produces a salted bcrypt hash of the passphrase.
// A cost <= 0 uses DefaultBcryptCost.
func HashPassphrase(passphrase string, cost int) (string, error) {
	if cost <= 0 {
		cost = DefaultBcryptCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(passphrase), cost)
	if err != nil {
		return "", fmt.Errorf("hash passphrase: %w", err)
	}
	return string(hash), nil
}

// VerifyPassphrase reports whether candidate matches the stored hash.
// bcrypt's comparison does not leak timing differences between mismatch classes.
func VerifyPassphrase(candidate, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)) == nil
}
