package keystore

import (
	"crypto/rand"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"

	derrors "github.com/dirvault/dirvault/internal/errors"
	"github.com/dirvault/dirvault/internal/utils"
)

// The current supported version of the encrypted key envelope stored on disk.
const envelopeVersion = 1

// envelope is the on-disk JSON structure holding the wrapped private key
// and the KDF parameters needed to unwrap it.
type envelope struct {
	V      int    `json:"v"`
	Salt   []byte `json:"salt"`
	N      int    `json:"scrypt_N"`
	R      int    `json:"scrypt_r"`
	P      int    `json:"scrypt_p"`
	Cipher []byte `json:"cipher"`
}

// Tunables for scrypt key derivation.
func scryptParamsDefault() (N, r, p int) { return 1 << 15, 8, 1 }

// wrapKey derives a key-encryption key from passphrase and seals raw into a
// JSON envelope.
func wrapKey(passphrase, raw []byte) ([]byte, error) {
	var salt [16]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return nil, err
	}

	N, r, p := scryptParamsDefault()
	kek, err := scrypt.Key(passphrase, salt[:], N, r, p, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	defer utils.Zero(kek)

	aead, err := chacha20poly1305.New(kek)
	if err != nil {
		return nil, err
	}

	// Zero nonce; the salt-bound key is unique per envelope.
	var nonce [chacha20poly1305.NonceSize]byte
	ct := aead.Seal(nil, nonce[:], raw, salt[:])

	return json.Marshal(envelope{
		V:      envelopeVersion,
		Salt:   salt[:],
		N:      N,
		R:      r,
		P:      p,
		Cipher: ct,
	})
}

// unwrapKey opens the JSON envelope using a key derived from passphrase.
// Authentication failure surfaces as ErrBadPassphrase; a wrong passphrase
// and a corrupted envelope are indistinguishable.
func unwrapKey(passphrase, data []byte) ([]byte, error) {
	var e envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("%w: malformed envelope", derrors.ErrBadPassphrase)
	}
	if e.V > envelopeVersion {
		return nil, fmt.Errorf("unsupported key envelope version %d", e.V)
	}

	// Nonsense KDF parameters mean a tampered envelope; same answer as a
	// failed authentication.
	kek, err := scrypt.Key(passphrase, e.Salt, e.N, e.R, e.P, chacha20poly1305.KeySize)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed envelope", derrors.ErrBadPassphrase)
	}
	defer utils.Zero(kek)

	aead, err := chacha20poly1305.New(kek)
	if err != nil {
		return nil, err
	}

	var nonce [chacha20poly1305.NonceSize]byte
	pt, err := aead.Open(nil, nonce[:], e.Cipher, e.Salt)
	if err != nil {
		return nil, derrors.ErrBadPassphrase
	}
	return pt, nil
}
