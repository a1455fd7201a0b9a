// Package cryptox provides the credential primitives used by the auth
// service: random salt generation and a salted one-way password digest.
package cryptox

import (
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/argon2"

	"github.com/noteyou/noteyou/internal/common"
)

const saltSize = 16

// GenerateSalt returns a random hex-encoded salt.
func GenerateSalt() (string, error) {
	return common.MakeRandHexString(saltSize)
}

// HashPassword derives a hex-encoded argon2id digest of password under salt.
// The same (password, salt) pair always yields the same digest.
func HashPassword(password, salt string) string {
	digest := argon2.IDKey([]byte(password), []byte(salt), 1, 64*1024, 4, 32)
	return hex.EncodeToString(digest)
}

// VerifyPassword recomputes the digest for the candidate password and
// compares it to the stored digest in constant time.
func VerifyPassword(password, salt, storedDigest string) bool {
	candidate := HashPassword(password, salt)
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(storedDigest)) == 1
}
