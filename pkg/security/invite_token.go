package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"
)

// InviteTokenBytes is the number of random bytes in an invite secret.
const InviteTokenBytes = 32

// InviteTokenCodec issues invite secrets and derives the fingerprint that is
// stored in their place.
type InviteTokenCodec interface {
	Issue() (secret, fingerprint string, err error)
	Fingerprint(secret string) string
	Matches(storedFingerprint, candidate string) bool
}

type sha256Codec struct {
	random io.Reader
}

// NewInviteTokenCodec creates a codec backed by crypto/rand.
func NewInviteTokenCodec() InviteTokenCodec {
	return &sha256Codec{random: rand.Reader}
}

// NewInviteTokenCodecWithSource uses r as the random source. r must be
// cryptographically secure outside of tests.
func NewInviteTokenCodecWithSource(r io.Reader) InviteTokenCodec {
	return &sha256Codec{random: r}
}

// Issue returns a hex encoded secret and its fingerprint.
func (c *sha256Codec) Issue() (string, string, error) {
	buf := make([]byte, InviteTokenBytes)
	if _, err := io.ReadFull(c.random, buf); err != nil {
		return "", "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	secret := hex.EncodeToString(buf)
	return secret, c.Fingerprint(secret), nil
}

// Fingerprint is the lowercase hex SHA-256 of the secret string.
func (c *sha256Codec) Fingerprint(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

func (c *sha256Codec) Matches(storedFingerprint, candidate string) bool {
	if storedFingerprint == "" {
		return false
	}
	computed := c.Fingerprint(candidate)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedFingerprint)) == 1
}
