package confcrypt

import (
	"errors"
	"fmt"
)

// Sentinel errors for the common failure conditions.
var (
	// ErrAuthFailed indicates an AEAD tag verification failure: wrong key,
	// tampered ciphertext, or a corrupted nonce.
	ErrAuthFailed = errors.New("authentication failed - data may be corrupted or tampered")

	// ErrKeyFileExists is returned by Save when the target exists and
	// overwrite was not requested.
	ErrKeyFileExists = errors.New("key file already exists")

	// ErrKeyFileNotFound is returned by Load when the key file is missing.
	ErrKeyFileNotFound = errors.New("key file not found")

	// ErrUnsupportedAlgorithm indicates an unknown cipher name or constant.
	ErrUnsupportedAlgorithm = errors.New("unsupported encryption algorithm")
)

// KeyDerivationError reports a fatal failure while resolving or deriving
// key material. It is only raised when the underlying OS identity or
// randomness source is unavailable; it is never used for per-field issues.
type KeyDerivationError struct {
	Source  string // "machine-id", "username", "key-file", ...
	Message string
	Err     error
}

func (e *KeyDerivationError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("key derivation error: %s: %s", e.Source, e.Message)
	}
	return fmt.Sprintf("key derivation error: %s", e.Message)
}

func (e *KeyDerivationError) Unwrap() error { return e.Err }

// AuthenticationError reports an AEAD decryption failure for a single
// field. The recursive transform converts it into a failure marker; it
// never aborts a whole document.
type AuthenticationError struct {
	Message string
	Err     error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication error: %s", e.Message)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// KeyFileError reports a missing, unreadable, or structurally invalid key
// file, or a refused overwrite.
type KeyFileError struct {
	Path    string
	Message string
	Err     error
}

func (e *KeyFileError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("key file error: %s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("key file error: %s", e.Message)
}

func (e *KeyFileError) Unwrap() error { return e.Err }

// PathResolutionError reports a write-time structural conflict: a path
// segment that exists but is not a mapping or sequence of compatible
// shape, a sequence index out of range, or a malformed path string.
type PathResolutionError struct {
	Path    string // the full sensitive path
	Segment string // the segment that failed
	Message string
}

func (e *PathResolutionError) Error() string {
	if e.Segment != "" {
		return fmt.Sprintf("path resolution error: %s (segment %q): %s", e.Path, e.Segment, e.Message)
	}
	return fmt.Sprintf("path resolution error: %s: %s", e.Path, e.Message)
}

// EncryptionError reports a failed field encryption. Only surfaced to
// callers in strict mode; the default fail-open mode logs and moves on.
type EncryptionError struct {
	Path    string
	Message string
	Err     error
}

func (e *EncryptionError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("encryption error: %s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("encryption error: %s", e.Message)
}

func (e *EncryptionError) Unwrap() error { return e.Err }

// Error classification helpers.

// IsKeyDerivationError checks if an error is a key derivation error.
func IsKeyDerivationError(err error) bool {
	var ke *KeyDerivationError
	return errors.As(err, &ke)
}

// IsAuthenticationError checks if an error is an authentication error.
func IsAuthenticationError(err error) bool {
	var ae *AuthenticationError
	return errors.As(err, &ae)
}

// IsKeyFileError checks if an error is a key file error.
func IsKeyFileError(err error) bool {
	var ke *KeyFileError
	return errors.As(err, &ke)
}

// IsPathResolutionError checks if an error is a path resolution error.
func IsPathResolutionError(err error) bool {
	var pe *PathResolutionError
	return errors.As(err, &pe)
}

// IsEncryptionError checks if an error is an encryption error.
func IsEncryptionError(err error) bool {
	var ee *EncryptionError
	return errors.As(err, &ee)
}
