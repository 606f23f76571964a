package confcrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// CipherEngine provides AEAD encryption and decryption for field values.
//
// Encrypt generates a fresh cryptographically random nonce on every call;
// there is no way to supply or reuse a nonce through this interface, which
// makes nonce reuse under one key structurally impossible.
type CipherEngine interface {
	// Encrypt encrypts plaintext with optional associated data and returns
	// the ciphertext together with the nonce used.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)

	// Decrypt decrypts ciphertext with the given nonce and associated
	// data. Tag verification failure yields an *AuthenticationError;
	// partial plaintext is never returned.
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)

	// Algorithm returns the cipher this engine implements.
	Algorithm() Algorithm

	// NonceSize returns the size of nonces in bytes.
	NonceSize() int

	// Overhead returns the authentication tag size in bytes.
	Overhead() int
}

// aeadEngine implements CipherEngine over any crypto/cipher AEAD.
// Both supported suites share the 12-byte nonce, 16-byte tag layout.
type aeadEngine struct {
	aead      cipher.AEAD
	algorithm Algorithm
}

// NewAESGCMEngine creates an AES-256-GCM cipher engine.
func NewAESGCMEngine(key []byte) (CipherEngine, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("AES-256 requires a %d-byte key, got %d bytes", KeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &aeadEngine{aead: aead, algorithm: AlgorithmAES256GCM}, nil
}

// NewChaCha20Poly1305Engine creates a ChaCha20-Poly1305 cipher engine.
func NewChaCha20Poly1305Engine(key []byte) (CipherEngine, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("ChaCha20-Poly1305 requires a %d-byte key, got %d bytes",
			chacha20poly1305.KeySize, len(key))
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create ChaCha20-Poly1305 cipher: %w", err)
	}

	return &aeadEngine{aead: aead, algorithm: AlgorithmChaCha20Poly1305}, nil
}

// NewCipherEngine creates a cipher engine for the given algorithm and key.
func NewCipherEngine(algorithm Algorithm, key []byte) (CipherEngine, error) {
	switch algorithm {
	case AlgorithmAES256GCM:
		return NewAESGCMEngine(key)
	case AlgorithmChaCha20Poly1305:
		return NewChaCha20Poly1305Engine(key)
	default:
		return nil, ErrUnsupportedAlgorithm
	}
}

// Encrypt encrypts plaintext under a freshly generated random nonce.
func (e *aeadEngine) Encrypt(plaintext, aad []byte) ([]byte, []byte, error) {
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := e.aead.Seal(nil, nonce, plaintext, aad)
	return ciphertext, nonce, nil
}

// Decrypt decrypts and authenticates ciphertext.
func (e *aeadEngine) Decrypt(ciphertext, nonce, aad []byte) ([]byte, error) {
	if len(nonce) != e.aead.NonceSize() {
		return nil, &AuthenticationError{
			Message: fmt.Sprintf("nonce must be %d bytes, got %d", e.aead.NonceSize(), len(nonce)),
			Err:     ErrAuthFailed,
		}
	}

	plaintext, err := e.aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, &AuthenticationError{Message: ErrAuthFailed.Error(), Err: ErrAuthFailed}
	}

	return plaintext, nil
}

// Algorithm returns the cipher this engine implements.
func (e *aeadEngine) Algorithm() Algorithm { return e.algorithm }

// NonceSize returns the nonce size (12 bytes for both suites).
func (e *aeadEngine) NonceSize() int { return e.aead.NonceSize() }

// Overhead returns the authentication tag size (16 bytes for both suites).
func (e *aeadEngine) Overhead() int { return e.aead.Overhead() }
