// Package keystore manages the asymmetric key pair lifecycle for a project.
//
// The key pair is X25519. Three artifacts exist on disk:
//
//   - the encrypted private key (scrypt + ChaCha20-Poly1305 envelope,
//     passphrase-wrapped), the only durable representation
//   - the public key, durable and re-derivable from the private key
//   - the plaintext private key, transient; materialized only for the span
//     of a single command and actively purged on every exit path
//
// Sealing needs only the public artifact. Opening needs the passphrase to
// unwrap the encrypted artifact into memory.
package keystore
