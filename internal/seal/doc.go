// Package seal implements streaming public-key authenticated encryption for
// bundles.
//
// A sealed stream is:
//
//	"DVSEAL1\n" | ephemeral X25519 public key (32 bytes) | chunks...
//
// The payload key is HKDF-SHA256 over the X25519 shared secret, salted with
// both public keys. The payload is a sequence of 64 KiB plaintext chunks,
// each sealed with ChaCha20-Poly1305 under a counter nonce whose last byte
// marks the final chunk. The construction prevents chunk reordering,
// truncation, and extension without any shared secret beyond the key pair.
//
// Writer and Reader operate on io streams so a directory can be packed,
// compressed, and sealed in one pipeline without materializing the archive
// in memory.
package seal
