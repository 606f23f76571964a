package confcrypt

import (
	"fmt"

	"github.com/absfs/absfs"
)

// Algorithm identifies the AEAD cipher used for field encryption.
type Algorithm uint8

const (
	// AlgorithmAES256GCM uses AES-256 with Galois/Counter Mode.
	AlgorithmAES256GCM Algorithm = iota
	// AlgorithmChaCha20Poly1305 uses the ChaCha20 stream cipher with a
	// Poly1305 MAC.
	AlgorithmChaCha20Poly1305
)

// String returns the wire name of the algorithm, as stored in field
// envelopes and key files.
func (a Algorithm) String() string {
	switch a {
	case AlgorithmAES256GCM:
		return "AES-256-GCM"
	case AlgorithmChaCha20Poly1305:
		return "ChaCha20-Poly1305"
	default:
		return "unknown"
	}
}

// ParseAlgorithm maps a wire name back to an Algorithm. The legacy name
// "AES-GCM" is accepted as an alias for AES-256-GCM for documents written
// by older versions.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch name {
	case "AES-256-GCM", "AES-GCM":
		return AlgorithmAES256GCM, nil
	case "ChaCha20-Poly1305":
		return AlgorithmChaCha20Poly1305, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, name)
	}
}

const (
	// KeySize is the derived key size in bytes (both supported ciphers use
	// 256-bit keys).
	KeySize = 32

	// SaltSize is the default key derivation salt size in bytes.
	SaltSize = 16

	// NonceSize is the AEAD nonce size in bytes.
	NonceSize = 12

	// DefaultIterations is the default PBKDF2-HMAC-SHA-256 iteration count.
	DefaultIterations = 100000
)

// KeyMaterial holds a derived encryption key together with the inputs
// needed to rederive or persist it. It is immutable after derivation and
// safe to share read-only across goroutines.
type KeyMaterial struct {
	key        []byte
	salt       []byte
	masterKey  string
	algorithm  Algorithm
	iterations int
	keyID      string
}

// Algorithm returns the cipher the material was derived for.
func (m *KeyMaterial) Algorithm() Algorithm { return m.algorithm }

// Iterations returns the PBKDF2 iteration count used for derivation.
func (m *KeyMaterial) Iterations() int { return m.iterations }

// KeyID returns the identifier assigned when the material was generated
// via the key file store, or "" for derived material.
func (m *KeyMaterial) KeyID() string { return m.keyID }

// Salt returns a copy of the derivation salt.
func (m *KeyMaterial) Salt() []byte {
	s := make([]byte, len(m.salt))
	copy(s, m.salt)
	return s
}

// Engine constructs the cipher engine owning this material.
func (m *KeyMaterial) Engine() (CipherEngine, error) {
	return NewCipherEngine(m.algorithm, m.key)
}

// KeyOptions controls key material resolution. The zero value derives an
// AES-256-GCM key from the machine-fingerprint default secret; see the
// package documentation for the security caveats of that mode.
//
// Sources are consulted in priority order: Secret, KeyFilePath, the
// environment variable, the OS keyring (only when KeyringService is set),
// and finally the machine fingerprint.
type KeyOptions struct {
	// Secret is an explicit master secret. Highest priority.
	Secret string

	// KeyFilePath loads master secret, salt and algorithm from a key file.
	KeyFilePath string

	// FS is the filesystem used to read KeyFilePath. Nil means the host OS.
	FS absfs.FileSystem

	// EnvVar names the environment variable holding the master secret.
	// Empty means EnvMasterKey.
	EnvVar string

	// SaltEnvVar names the environment variable holding a base64 salt.
	// Empty means EnvSalt.
	SaltEnvVar string

	// Salt overrides the derivation salt, enabling a shared key across
	// hosts. Nil selects the salt env var, then the machine-derived salt.
	Salt []byte

	// Algorithm selects the cipher. The zero value is AES-256-GCM.
	Algorithm Algorithm

	// Iterations overrides the PBKDF2 iteration count. Zero means
	// DefaultIterations.
	Iterations int

	// KeyringService enables the OS keyring source, consulted between the
	// environment variable and the machine-fingerprint default.
	KeyringService string

	// KeyringAccount is the keyring account name. Empty means
	// KeyringDefaultAccount.
	KeyringAccount string
}
