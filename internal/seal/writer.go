package seal

import (
	"crypto/cipher"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/curve25519"

	"github.com/dirvault/dirvault/internal/keystore"
	"github.com/dirvault/dirvault/internal/utils"
)

// Writer seals a plaintext stream to a recipient public key.
//
// The output is self-describing: a magic prefix and the ephemeral public key,
// followed by the chunked AEAD payload. Opening requires only the matching
// private key. The stream is not valid until Close writes the final chunk.
type Writer struct {
	dst     io.Writer
	aead    cipher.AEAD
	buf     []byte
	counter uint64
	closed  bool
}

// NewWriter starts a sealed stream to recipient on dst. The header is
// written immediately.
func NewWriter(dst io.Writer, recipient keystore.PublicKey) (*Writer, error) {
	eph, err := keystore.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generating ephemeral key: %w", err)
	}
	defer eph.Zero()
	ephPub := eph.Public()

	shared, err := curve25519.X25519(eph[:], recipient[:])
	if err != nil {
		return nil, fmt.Errorf("computing shared secret: %w", err)
	}
	defer utils.Zero(shared)

	key, err := payloadKey(shared, ephPub[:], recipient[:])
	if err != nil {
		return nil, fmt.Errorf("deriving payload key: %w", err)
	}
	defer utils.Zero(key)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}

	if _, err := dst.Write([]byte(magic)); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}
	if _, err := dst.Write(ephPub[:]); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}

	return &Writer{
		dst:  dst,
		aead: aead,
		buf:  make([]byte, 0, chunkSize),
	}, nil
}

// Write buffers p into chunks. A full chunk is only sealed once more data
// arrives, so the last chunk can always carry the final-chunk flag.
func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, errors.New("seal: write after close")
	}

	total := len(p)
	for len(p) > 0 {
		if len(w.buf) == chunkSize {
			if err := w.flushChunk(false); err != nil {
				return total - len(p), err
			}
		}
		n := copy(w.buf[len(w.buf):chunkSize], p)
		w.buf = w.buf[:len(w.buf)+n]
		p = p[n:]
	}
	return total, nil
}

// Close seals the final chunk. An empty plaintext still produces one empty
// final chunk, so truncating a stream to just its header is detectable.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.flushChunk(true)
}

func (w *Writer) flushChunk(final bool) error {
	nonce := chunkNonce(w.counter, final)
	ct := w.aead.Seal(nil, nonce, w.buf, nil)
	w.counter++
	w.buf = w.buf[:0]

	if _, err := w.dst.Write(ct); err != nil {
		return fmt.Errorf("writing sealed chunk: %w", err)
	}
	return nil
}
