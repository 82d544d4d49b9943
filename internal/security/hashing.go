package security

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes and verifies secrets using bcrypt. Hash/Compare cover user
// passwords; HashToken/CompareToken cover refresh tokens, which exceed
// bcrypt's 72-byte input limit and are SHA-256 digested first. Callers must
// not log or persist plaintext inputs.
type Hasher struct {
	Cost int
}

// NewHasher returns a Hasher with the given bcrypt cost (4–31). Cost 10 is a
// reasonable default for interactive login.
func NewHasher(cost int) *Hasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &Hasher{Cost: cost}
}

// Hash produces a bcrypt digest of plain. Returns the digest as a string suitable for storage.
func (h *Hasher) Hash(plain []byte) (string, error) {
	b, err := bcrypt.GenerateFromPassword(plain, h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare verifies plain against the stored digest using constant-time
// comparison. Returns nil if they match; returns an error (including
// bcrypt.ErrMismatchedHashAndPassword) if they do not or on invalid digest.
func (h *Hasher) Compare(hash string, plain []byte) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), plain)
}

// HashToken produces a bcrypt digest of a token of arbitrary length. The token
// is reduced to its hex-encoded SHA-256 digest first; bcrypt rejects inputs
// over 72 bytes and a signed token is well past that.
func (h *Hasher) HashToken(token string) (string, error) {
	return h.Hash(digestToken(token))
}

// CompareToken verifies token against a digest produced by HashToken.
// Returns nil on a match.
func (h *Hasher) CompareToken(hash, token string) error {
	return h.Compare(hash, digestToken(token))
}

func digestToken(token string) []byte {
	sum := sha256.Sum256([]byte(token))
	return []byte(hex.EncodeToString(sum[:]))
}
