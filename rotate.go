package confcrypt

import (
	"log/slog"
)

// RotateDocument re-encrypts every envelope in doc under the
// transformer's own engine, decrypting each field with old first. The
// plaintext only ever exists in memory, so a master key rotation never
// round-trips through a decrypted document on disk.
//
// A field that old cannot authenticate keeps its original envelope and is
// logged by default; under WithStrictEncrypt it aborts the rotation.
func (t *Transformer) RotateDocument(doc map[string]any, old CipherEngine) (map[string]any, error) {
	out, err := t.rotateNode(doc, old)
	if err != nil {
		return nil, err
	}
	m, _ := out.(map[string]any)
	return m, nil
}

func (t *Transformer) rotateNode(node any, old CipherEngine) (any, error) {
	if envelope, ok := envelopeFromNode(node); ok {
		plaintext, err := envelope.open(old)
		if err != nil {
			if t.strict {
				return nil, err
			}
			t.logger.Warn("cannot rotate field, keeping original envelope",
				slog.String("error", err.Error()))
			return node, nil
		}

		resealed, err := sealField(t.engine, plaintext)
		if err != nil {
			if t.strict {
				return nil, &EncryptionError{Message: "re-encryption failed", Err: err}
			}
			t.logger.Error("cannot re-encrypt field, keeping original envelope",
				slog.String("error", err.Error()))
			return node, nil
		}
		return resealed.node(), nil
	}

	switch n := node.(type) {
	case map[string]any:
		out := make(map[string]any, len(n))
		for key, value := range n {
			rotated, err := t.rotateNode(value, old)
			if err != nil {
				return nil, err
			}
			out[key] = rotated
		}
		return out, nil
	case []any:
		out := make([]any, len(n))
		for i, item := range n {
			rotated, err := t.rotateNode(item, old)
			if err != nil {
				return nil, err
			}
			out[i] = rotated
		}
		return out, nil
	default:
		return node, nil
	}
}
