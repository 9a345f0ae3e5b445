package keystore

import (
	"fmt"
	"os"

	"github.com/dirvault/dirvault/internal/config"
	derrors "github.com/dirvault/dirvault/internal/errors"
	"github.com/dirvault/dirvault/internal/utils"
)

// Store manages the key pair artifacts of one project.
//
// The passphrase-wrapped private key is the only durable representation.
// A plaintext private key may exist on disk only transiently; Purge must run
// on every exit path of any operation that materialized one.
type Store struct {
	cfg config.Config
}

// New returns a Store operating on the artifacts named by cfg.
func New(cfg config.Config) *Store {
	return &Store{cfg: cfg}
}

// Generate creates a fresh key pair, wraps the private half with passphrase,
// and persists the encrypted and public artifacts. Any existing artifacts of
// the same names are overwritten.
func (s *Store) Generate(passphrase []byte) (PublicKey, error) {
	priv, err := NewPrivateKey()
	if err != nil {
		return PublicKey{}, fmt.Errorf("%w: %v", derrors.ErrKeyGeneration, err)
	}
	defer priv.Zero()

	sealed, err := wrapKey(passphrase, priv[:])
	if err != nil {
		return PublicKey{}, fmt.Errorf("%w: %v", derrors.ErrKeyGeneration, err)
	}

	if err := os.WriteFile(s.cfg.EncryptedKeyPath(), sealed, 0600); err != nil {
		return PublicKey{}, fmt.Errorf("%w: writing encrypted key: %v", derrors.ErrKeyGeneration, err)
	}

	pub := priv.Public()
	if err := s.WritePublicKey(pub); err != nil {
		return PublicKey{}, fmt.Errorf("%w: %v", derrors.ErrKeyGeneration, err)
	}

	return pub, nil
}

// HasEncryptedKey reports whether the durable encrypted artifact exists.
func (s *Store) HasEncryptedKey() bool {
	_, err := os.Stat(s.cfg.EncryptedKeyPath())
	return err == nil
}

// Open reads the encrypted artifact and unwraps it with passphrase.
// The caller owns the returned key and must Zero it when finished.
func (s *Store) Open(passphrase []byte) (*PrivateKey, error) {
	data, err := os.ReadFile(s.cfg.EncryptedKeyPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", derrors.ErrMissingKey, s.cfg.EncryptedKeyPath())
		}
		return nil, fmt.Errorf("reading encrypted key: %w", err)
	}

	raw, err := unwrapKey(passphrase, data)
	if err != nil {
		return nil, err
	}
	defer utils.Zero(raw)

	var priv PrivateKey
	if len(raw) != len(priv) {
		return nil, fmt.Errorf("%w: unexpected key length", derrors.ErrBadPassphrase)
	}
	copy(priv[:], raw)
	return &priv, nil
}

// WritePlaintext materializes the transient plaintext key artifact.
// The artifact must not survive the current command; callers pair this with
// a deferred Purge.
func (s *Store) WritePlaintext(priv *PrivateKey) error {
	if err := os.WriteFile(s.cfg.KeyPath(), EncodePrivateKey(priv), 0600); err != nil {
		return fmt.Errorf("writing plaintext key: %w", err)
	}
	return nil
}

// LoadPlaintext reads the transient plaintext key artifact, if present.
// Returns ErrMissingKey when no plaintext key is materialized.
func (s *Store) LoadPlaintext() (*PrivateKey, error) {
	data, err := os.ReadFile(s.cfg.KeyPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: no plaintext key at %s", derrors.ErrMissingKey, s.cfg.KeyPath())
		}
		return nil, fmt.Errorf("reading plaintext key: %w", err)
	}
	defer utils.Zero(data)

	return DecodePrivateKey(data)
}

// Purge deletes the transient plaintext key artifact from durable storage.
// Safe to call when no artifact exists. This is a security invariant, not
// cleanup: it runs on every exit path, success or failure.
func (s *Store) Purge() error {
	err := os.Remove(s.cfg.KeyPath())
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("purging plaintext key: %w", err)
	}
	return nil
}

// WritePublicKey persists the public key artifact.
func (s *Store) WritePublicKey(pub PublicKey) error {
	if err := os.WriteFile(s.cfg.PublicKeyPath(), EncodePublicKey(pub), 0600); err != nil {
		return fmt.Errorf("writing public key: %w", err)
	}
	return nil
}

// LoadPublicKey reads the public key artifact.
func (s *Store) LoadPublicKey() (PublicKey, error) {
	data, err := os.ReadFile(s.cfg.PublicKeyPath())
	if err != nil {
		if os.IsNotExist(err) {
			return PublicKey{}, fmt.Errorf("%w: %s", derrors.ErrMissingPublicKey, s.cfg.PublicKeyPath())
		}
		return PublicKey{}, fmt.Errorf("reading public key: %w", err)
	}

	pub, err := DecodePublicKey(data)
	if err != nil {
		return PublicKey{}, fmt.Errorf("%w: %v", derrors.ErrMissingPublicKey, err)
	}
	return pub, nil
}
