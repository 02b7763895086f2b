// Package identity supplies account numbers, PIN salts and the salted PIN
// digest used by the authenticator.
package identity

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"math/big"
	"strconv"
)

const (
	accountNoMin   = 1_000_000_000
	accountNoRange = 9_000_000_000
	saltBytes      = 12
)

// Generator draws account numbers and salts from crypto/rand.
type Generator struct{}

func NewGenerator() Generator {
	return Generator{}
}

// NewAccountNo returns a fresh 10-digit account number. Uniqueness is
// enforced by the store's primary key; callers retry on collision.
func (Generator) NewAccountNo() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(accountNoRange))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(accountNoMin+n.Int64(), 10), nil
}

// NewSalt returns a base64-encoded random salt.
func (Generator) NewSalt() (string, error) {
	salt := make([]byte, saltBytes)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(salt), nil
}

// Hasher computes the stored credential digest: hex(sha256(pin ":" salt)).
type Hasher struct{}

func NewHasher() Hasher {
	return Hasher{}
}

func (Hasher) Hash(pin, salt string) string {
	sum := sha256.Sum256([]byte(pin + ":" + salt))
	return hex.EncodeToString(sum[:])
}

// Verify compares in constant time so the check leaks nothing about how much
// of the digest matched.
func (h Hasher) Verify(pin, salt, storedHash string) bool {
	candidate := h.Hash(pin, salt)
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(storedHash)) == 1
}
