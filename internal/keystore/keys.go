package keystore

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/curve25519"

	"github.com/dirvault/dirvault/internal/utils"
)

const (
	publicKeyPrefix  = "dirvault-pub-v1:"
	privateKeyPrefix = "dirvault-key-v1:"
)

// PrivateKey is a clamped Curve25519 scalar.
type PrivateKey [32]byte

// PublicKey is a Curve25519 point, derivable from the matching PrivateKey.
type PublicKey [32]byte

// NewPrivateKey returns a fresh Curve25519 private key.
// The key is clamped per RFC 7748.
func NewPrivateKey() (*PrivateKey, error) {
	var k PrivateKey
	if _, err := rand.Read(k[:]); err != nil {
		return nil, fmt.Errorf("reading randomness: %w", err)
	}
	k.clamp()
	return &k, nil
}

// Public derives the public half. The derivation is deterministic, so the
// public key can always be recovered from the private key alone.
func (k *PrivateKey) Public() PublicKey {
	var pub [32]byte
	curve25519.ScalarBaseMult(&pub, (*[32]byte)(k))
	return PublicKey(pub)
}

// Zero wipes the key material in place.
func (k *PrivateKey) Zero() {
	utils.Zero(k[:])
}

func (k *PrivateKey) clamp() {
	k[0] &= 248
	k[31] &= 127
	k[31] |= 64
}

// EncodePublicKey renders pub as a single self-identifying text line.
func EncodePublicKey(pub PublicKey) []byte {
	return []byte(publicKeyPrefix + base64.StdEncoding.EncodeToString(pub[:]) + "\n")
}

// DecodePublicKey parses the output of EncodePublicKey.
func DecodePublicKey(data []byte) (PublicKey, error) {
	var pub PublicKey

	line := strings.TrimSpace(string(data))
	if !strings.HasPrefix(line, publicKeyPrefix) {
		return pub, fmt.Errorf("not a dirvault public key")
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(line, publicKeyPrefix))
	if err != nil {
		return pub, fmt.Errorf("malformed public key encoding: %w", err)
	}
	if len(raw) != len(pub) {
		return pub, fmt.Errorf("public key has wrong length %d", len(raw))
	}

	copy(pub[:], raw)
	return pub, nil
}

// EncodePrivateKey renders k as a single self-identifying text line.
// Only ever written to the transient plaintext key artifact.
func EncodePrivateKey(k *PrivateKey) []byte {
	return []byte(privateKeyPrefix + base64.StdEncoding.EncodeToString(k[:]) + "\n")
}

// DecodePrivateKey parses the output of EncodePrivateKey.
func DecodePrivateKey(data []byte) (*PrivateKey, error) {
	line := strings.TrimSpace(string(data))
	if !strings.HasPrefix(line, privateKeyPrefix) {
		return nil, fmt.Errorf("not a dirvault private key")
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(line, privateKeyPrefix))
	if err != nil {
		return nil, fmt.Errorf("malformed private key encoding: %w", err)
	}
	defer utils.Zero(raw)

	var k PrivateKey
	if len(raw) != len(k) {
		return nil, fmt.Errorf("private key has wrong length %d", len(raw))
	}
	copy(k[:], raw)
	return &k, nil
}
