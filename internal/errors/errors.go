package errors

import "errors"

// Project errors indicate the working directory is not a usable vault root.
var (
	// ErrInvalidProjectRoot indicates the directory is missing the .dirvault marker.
	ErrInvalidProjectRoot = errors.New("not a dirvault project root")

	// ErrProjectAlreadyInitialized indicates the directory already has a .dirvault marker.
	ErrProjectAlreadyInitialized = errors.New("project has already been initialized")

	// ErrLockHeld indicates another dirvault invocation holds the project lock.
	ErrLockHeld = errors.New("another dirvault process is operating on this project")
)

// Key errors indicate problems with the key pair lifecycle.
var (
	// ErrMissingKey indicates the encrypted private key artifact could not be located.
	ErrMissingKey = errors.New("encrypted private key not found")

	// ErrBadPassphrase indicates the passphrase failed to authenticate the key envelope.
	ErrBadPassphrase = errors.New("wrong passphrase or corrupted key envelope")

	// ErrMissingPublicKey indicates the public key artifact could not be located.
	ErrMissingPublicKey = errors.New("public key not found")

	// ErrKeyGeneration indicates key pair generation or wrapping failed.
	ErrKeyGeneration = errors.New("failed to generate key pair")
)

// Transform errors indicate failures while packing, sealing, or opening bundles.
var (
	// ErrCorruptArchive indicates the archive stream is malformed.
	ErrCorruptArchive = errors.New("corrupt archive stream")

	// ErrDecryption indicates a bundle could not be authenticated. Wrong key and
	// corrupted ciphertext are deliberately indistinguishable.
	ErrDecryption = errors.New("unable to decrypt bundle")
)

// ErrVcs indicates the version-control collaborator reported a failure.
var ErrVcs = errors.New("version control operation failed")
