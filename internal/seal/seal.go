package seal

import (
	"crypto/sha256"
	"encoding/binary"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	// magic identifies a sealed bundle stream.
	magic = "DVSEAL1\n"

	// chunkSize is the plaintext chunk length of the STREAM payload.
	chunkSize = 64 * 1024

	overhead = chacha20poly1305.Overhead
	hkdfInfo = "dirvault/v1/payload"
)

// payloadKey derives the chunk encryption key from the X25519 shared secret.
// The salt binds both public keys so a sealed stream only opens with the
// intended recipient's private key.
func payloadKey(shared, ephPub, recipientPub []byte) ([]byte, error) {
	salt := make([]byte, 0, 64)
	salt = append(salt, ephPub...)
	salt = append(salt, recipientPub...)

	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, shared, salt, []byte(hkdfInfo)), key); err != nil {
		return nil, err
	}
	return key, nil
}

// chunkNonce builds the 96-bit nonce for one chunk: a big-endian counter
// with the last byte flagging the final chunk. Reusing a (key, nonce) pair
// is impossible because the key is unique per stream and the counter is
// strictly increasing.
func chunkNonce(counter uint64, final bool) []byte {
	nonce := make([]byte, chacha20poly1305.NonceSize)
	binary.BigEndian.PutUint64(nonce[3:11], counter)
	if final {
		nonce[11] = 1
	}
	return nonce
}
