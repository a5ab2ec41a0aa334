package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// NewResetToken returns a fresh password-reset token: 20 random bytes,
// hex-encoded to 40 characters. Only the sha256 digest of the token is
// ever persisted.
func NewResetToken() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// HashToken derives the stored lookup form of a reset token. The digest is
// deterministic so a later-submitted token can be found by re-hashing.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
