package confcrypt

import (
	"encoding/base64"
	"fmt"
)

// Envelope field names as they appear in persisted documents.
const (
	envelopeTagField       = "encrypted"
	envelopeAlgorithmField = "algorithm"
	envelopeDataField      = "data"
	envelopeNonceField     = "nonce"
)

// FieldEnvelope is the self-describing structure that replaces a plaintext
// leaf once encrypted. It carries everything decryption needs, so the
// decrypting side requires no knowledge of which paths were sensitive.
type FieldEnvelope struct {
	Encrypted bool   `json:"encrypted" yaml:"encrypted"`
	Algorithm string `json:"algorithm" yaml:"algorithm"`
	Data      string `json:"data" yaml:"data"`
	Nonce     string `json:"nonce" yaml:"nonce"`
}

// sealField encrypts a string leaf and wraps it in an envelope.
func sealField(engine CipherEngine, value string) (*FieldEnvelope, error) {
	ciphertext, nonce, err := engine.Encrypt([]byte(value), nil)
	if err != nil {
		return nil, err
	}

	return &FieldEnvelope{
		Encrypted: true,
		Algorithm: engine.Algorithm().String(),
		Data:      base64.StdEncoding.EncodeToString(ciphertext),
		Nonce:     base64.StdEncoding.EncodeToString(nonce),
	}, nil
}

// open decrypts the envelope's payload with the given engine.
func (e *FieldEnvelope) open(engine CipherEngine) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(e.Data)
	if err != nil {
		return "", fmt.Errorf("invalid base64 data: %w", err)
	}
	nonce, err := base64.StdEncoding.DecodeString(e.Nonce)
	if err != nil {
		return "", fmt.Errorf("invalid base64 nonce: %w", err)
	}

	plaintext, err := engine.Decrypt(ciphertext, nonce, nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// node renders the envelope as a document tree node, so external codecs
// round-trip it like any other mapping.
func (e *FieldEnvelope) node() map[string]any {
	return map[string]any{
		envelopeTagField:       true,
		envelopeAlgorithmField: e.Algorithm,
		envelopeDataField:      e.Data,
		envelopeNonceField:     e.Nonce,
	}
}

// envelopeFromNode recognizes the envelope shape inside a document tree:
// a mapping with encrypted == true and string data and nonce fields.
// Anything else, including near-misses, is left to the caller untouched.
func envelopeFromNode(node any) (*FieldEnvelope, bool) {
	m, isMap := node.(map[string]any)
	if !isMap {
		return nil, false
	}

	tag, isBool := m[envelopeTagField].(bool)
	if !isBool || !tag {
		return nil, false
	}
	data, hasData := m[envelopeDataField].(string)
	nonce, hasNonce := m[envelopeNonceField].(string)
	if !hasData || !hasNonce {
		return nil, false
	}

	algorithm, _ := m[envelopeAlgorithmField].(string)
	return &FieldEnvelope{
		Encrypted: true,
		Algorithm: algorithm,
		Data:      data,
		Nonce:     nonce,
	}, true
}
