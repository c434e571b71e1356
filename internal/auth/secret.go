// Package auth derives and verifies the credential digest stored in place
// of a device's shared secret.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HashSecret returns the lowercase hex SHA-256 digest of secret. The
// digest is deterministic and fixed-length, so it can be compared for
// exact equality against a stored value.
func HashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// Verify recomputes the digest of candidate and compares it against
// storedDigest in constant time. A false result is an authorization
// outcome, not an error; the caller decides how to surface it.
func Verify(storedDigest, candidate string) bool {
	digest := HashSecret(candidate)
	return subtle.ConstantTimeCompare([]byte(storedDigest), []byte(digest)) == 1
}
