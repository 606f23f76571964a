package confcrypt

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, KeySize)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return key
}

func TestCipherRoundTrip(t *testing.T) {
	plaintexts := [][]byte{
		[]byte("hello"),
		[]byte(""),
		[]byte("пароль 🔐 日本語"),
		{0x00, 0xff, 0x10, 0x80, 0x7f},
	}

	for _, algorithm := range []Algorithm{AlgorithmAES256GCM, AlgorithmChaCha20Poly1305} {
		t.Run(algorithm.String(), func(t *testing.T) {
			engine, err := NewCipherEngine(algorithm, testKey(t))
			require.NoError(t, err)

			for _, plaintext := range plaintexts {
				ciphertext, nonce, err := engine.Encrypt(plaintext, nil)
				require.NoError(t, err)
				assert.Len(t, nonce, NonceSize)
				assert.Len(t, ciphertext, len(plaintext)+engine.Overhead())

				recovered, err := engine.Decrypt(ciphertext, nonce, nil)
				require.NoError(t, err)
				assert.True(t, bytes.Equal(plaintext, recovered))
			}
		})
	}
}

func TestEncryptGeneratesFreshNonces(t *testing.T) {
	engine, err := NewAESGCMEngine(testKey(t))
	require.NoError(t, err)

	ct1, nonce1, err := engine.Encrypt([]byte("same plaintext"), nil)
	require.NoError(t, err)
	ct2, nonce2, err := engine.Encrypt([]byte("same plaintext"), nil)
	require.NoError(t, err)

	assert.NotEqual(t, nonce1, nonce2)
	assert.NotEqual(t, ct1, ct2)
}

func TestDecryptDetectsTampering(t *testing.T) {
	for _, algorithm := range []Algorithm{AlgorithmAES256GCM, AlgorithmChaCha20Poly1305} {
		t.Run(algorithm.String(), func(t *testing.T) {
			engine, err := NewCipherEngine(algorithm, testKey(t))
			require.NoError(t, err)

			ciphertext, nonce, err := engine.Encrypt([]byte("sensitive"), nil)
			require.NoError(t, err)

			// Flip a single bit of the ciphertext.
			tampered := make([]byte, len(ciphertext))
			copy(tampered, ciphertext)
			tampered[0] ^= 0x01

			_, err = engine.Decrypt(tampered, nonce, nil)
			require.Error(t, err)
			assert.True(t, IsAuthenticationError(err))
			assert.True(t, errors.Is(err, ErrAuthFailed))

			// Flip a single bit of the nonce.
			badNonce := make([]byte, len(nonce))
			copy(badNonce, nonce)
			badNonce[len(badNonce)-1] ^= 0x80

			_, err = engine.Decrypt(ciphertext, badNonce, nil)
			require.Error(t, err)
			assert.True(t, IsAuthenticationError(err))
		})
	}
}

func TestDecryptWrongKey(t *testing.T) {
	engineA, err := NewChaCha20Poly1305Engine(testKey(t))
	require.NoError(t, err)
	engineB, err := NewChaCha20Poly1305Engine(testKey(t))
	require.NoError(t, err)

	ciphertext, nonce, err := engineA.Encrypt([]byte("secret"), nil)
	require.NoError(t, err)

	_, err = engineB.Decrypt(ciphertext, nonce, nil)
	assert.True(t, IsAuthenticationError(err))
}

func TestDecryptRejectsBadNonceSize(t *testing.T) {
	engine, err := NewAESGCMEngine(testKey(t))
	require.NoError(t, err)

	ciphertext, _, err := engine.Encrypt([]byte("x"), nil)
	require.NoError(t, err)

	_, err = engine.Decrypt(ciphertext, []byte("short"), nil)
	assert.True(t, IsAuthenticationError(err))
}

func TestAssociatedDataMustMatch(t *testing.T) {
	engine, err := NewAESGCMEngine(testKey(t))
	require.NoError(t, err)

	ciphertext, nonce, err := engine.Encrypt([]byte("payload"), []byte("context-a"))
	require.NoError(t, err)

	recovered, err := engine.Decrypt(ciphertext, nonce, []byte("context-a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), recovered)

	_, err = engine.Decrypt(ciphertext, nonce, []byte("context-b"))
	assert.True(t, IsAuthenticationError(err))
}

func TestNewCipherEngineValidation(t *testing.T) {
	_, err := NewAESGCMEngine([]byte("too short"))
	assert.Error(t, err)

	_, err = NewChaCha20Poly1305Engine(make([]byte, 16))
	assert.Error(t, err)

	_, err = NewCipherEngine(Algorithm(99), testKey(t))
	assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)
}

func TestParseAlgorithm(t *testing.T) {
	alg, err := ParseAlgorithm("AES-256-GCM")
	require.NoError(t, err)
	assert.Equal(t, AlgorithmAES256GCM, alg)

	// Legacy alias.
	alg, err = ParseAlgorithm("AES-GCM")
	require.NoError(t, err)
	assert.Equal(t, AlgorithmAES256GCM, alg)

	alg, err = ParseAlgorithm("ChaCha20-Poly1305")
	require.NoError(t, err)
	assert.Equal(t, AlgorithmChaCha20Poly1305, alg)

	_, err = ParseAlgorithm("DES")
	assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)
}
