package seal

import (
	"bufio"
	"bytes"
	"crypto/cipher"
	"errors"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/curve25519"

	derrors "github.com/dirvault/dirvault/internal/errors"
	"github.com/dirvault/dirvault/internal/keystore"
	"github.com/dirvault/dirvault/internal/utils"
)

// Reader opens a sealed stream with the recipient's private key.
//
// Every way the stream can fail (wrong key, flipped ciphertext bits,
// truncation, trailing garbage) surfaces as the same ErrDecryption. The
// caller learns that the bundle did not authenticate, and nothing more.
type Reader struct {
	src     *bufio.Reader
	aead    cipher.AEAD
	block   []byte
	plain   bytes.Reader
	scratch []byte
	counter uint64
	done    bool
	failed  bool
}

// NewReader reads and checks the stream header, then prepares chunked
// decryption. No payload is consumed until the first Read.
func NewReader(src io.Reader, identity *keystore.PrivateKey) (*Reader, error) {
	br := bufio.NewReader(src)

	header := make([]byte, len(magic)+32)
	if _, err := io.ReadFull(br, header); err != nil {
		return nil, derrors.ErrDecryption
	}
	if string(header[:len(magic)]) != magic {
		return nil, derrors.ErrDecryption
	}
	ephPub := header[len(magic):]

	recipientPub := identity.Public()

	shared, err := curve25519.X25519(identity[:], ephPub)
	if err != nil {
		return nil, derrors.ErrDecryption
	}
	defer utils.Zero(shared)

	key, err := payloadKey(shared, ephPub, recipientPub[:])
	if err != nil {
		return nil, derrors.ErrDecryption
	}
	defer utils.Zero(key)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, derrors.ErrDecryption
	}

	return &Reader{
		src:   br,
		aead:  aead,
		block: make([]byte, chunkSize+overhead),
	}, nil
}

func (r *Reader) Read(p []byte) (int, error) {
	if r.failed {
		return 0, derrors.ErrDecryption
	}

	for r.plain.Len() == 0 {
		if r.done {
			return 0, io.EOF
		}
		if err := r.nextChunk(); err != nil {
			r.failed = true
			return 0, err
		}
	}

	return r.plain.Read(p)
}

// nextChunk reads and authenticates one sealed chunk into r.plain.
func (r *Reader) nextChunk() error {
	n, err := io.ReadFull(r.src, r.block)

	var final bool
	switch {
	case err == nil:
		// A full chunk; it is the final one only if nothing follows.
		_, peekErr := r.src.Peek(1)
		final = peekErr != nil

	case errors.Is(err, io.ErrUnexpectedEOF):
		// A short trailing chunk. It must at least carry the AEAD tag.
		if n < overhead {
			return derrors.ErrDecryption
		}
		final = true

	default:
		// io.EOF: the stream ended without a final chunk.
		return derrors.ErrDecryption
	}

	nonce := chunkNonce(r.counter, final)
	pt, openErr := r.aead.Open(r.scratch[:0], nonce, r.block[:n], nil)
	if openErr != nil {
		return derrors.ErrDecryption
	}
	r.counter++
	r.scratch = pt[:0]
	r.plain.Reset(pt)
	if final {
		r.done = true
	}
	return nil
}
