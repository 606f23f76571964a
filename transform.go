package confcrypt

import (
	"fmt"
	"log/slog"
	"strings"
)

// failureMarkerPrefix starts every failure-marker string substituted for a
// field that could not be decrypted.
const failureMarkerPrefix = "[decryption failed: "

func failureMarker(kind string) string {
	return failureMarkerPrefix + kind + "]"
}

// IsFailureMarker reports whether a decrypted value is a failure marker
// rather than recovered plaintext. Callers should treat a marker as
// "field unavailable".
func IsFailureMarker(value string) bool {
	return strings.HasPrefix(value, failureMarkerPrefix)
}

// Transformer drives encrypt-by-path and decrypt-by-structure over whole
// documents. It holds no mutable state and is safe for concurrent use on
// distinct document instances.
type Transformer struct {
	engine CipherEngine
	logger *slog.Logger
	strict bool
}

// TransformerOption configures a Transformer.
type TransformerOption func(*Transformer)

// WithLogger sets the logger used for skip and failure warnings.
func WithLogger(logger *slog.Logger) TransformerOption {
	return func(t *Transformer) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithStrictEncrypt makes any failed or skipped encryption a hard error
// instead of the default fail-open behavior, which logs and leaves the
// field untouched. A field silently persisted in plaintext is a real
// risk of the default mode; strict mode trades availability for the
// guarantee that EncryptDocument never half-succeeds.
func WithStrictEncrypt() TransformerOption {
	return func(t *Transformer) {
		t.strict = true
	}
}

// NewTransformer creates a Transformer over the given cipher engine.
func NewTransformer(engine CipherEngine, opts ...TransformerOption) *Transformer {
	t := &Transformer{
		engine: engine,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// EncryptDocument returns a copy of doc in which every string leaf
// addressed by paths is replaced with a field envelope. Unrelated
// structure is shared with the input.
//
// A path whose leaf is absent is always skipped with a warning; an absent
// field cannot leak. A leaf that is present but not a string, or a field
// whose encryption fails, is skipped with a warning by default and is an
// error under WithStrictEncrypt.
func (t *Transformer) EncryptDocument(doc map[string]any, paths []string) (map[string]any, error) {
	out := doc
	for _, path := range paths {
		value, ok := GetPath(out, path)
		if !ok {
			t.logger.Warn("sensitive path not present, skipping",
				slog.String("path", path))
			continue
		}

		if _, already := envelopeFromNode(value); already {
			t.logger.Debug("field already encrypted, skipping",
				slog.String("path", path))
			continue
		}

		plaintext, isString := value.(string)
		if !isString {
			if t.strict {
				return nil, &EncryptionError{
					Path:    path,
					Message: fmt.Sprintf("cannot encrypt non-string value of type %T", value),
				}
			}
			t.logger.Warn("cannot encrypt non-string value, skipping",
				slog.String("path", path),
				slog.String("type", fmt.Sprintf("%T", value)))
			continue
		}
		if plaintext == "" {
			t.logger.Debug("empty value, skipping", slog.String("path", path))
			continue
		}

		envelope, err := sealField(t.engine, plaintext)
		if err != nil {
			if t.strict {
				return nil, &EncryptionError{Path: path, Message: "encryption failed", Err: err}
			}
			// Fail-open: the field stays in plaintext. Loud on purpose.
			t.logger.Error("field encryption failed, leaving value in plaintext",
				slog.String("path", path),
				slog.String("error", err.Error()))
			continue
		}

		updated, err := SetPath(out, path, envelope.node())
		if err != nil {
			if t.strict {
				return nil, err
			}
			t.logger.Warn("cannot store encrypted field, skipping",
				slog.String("path", path),
				slog.String("error", err.Error()))
			continue
		}
		out = updated
	}
	return out, nil
}

// DecryptDocument walks the whole document structurally, independent of
// any path list, and replaces every node matching the envelope shape with
// its decrypted string. A field that fails authentication is replaced
// with a failure marker; one failing field never aborts the traversal or
// the decryption of other fields.
func (t *Transformer) DecryptDocument(doc map[string]any) map[string]any {
	out := t.decryptNode(doc)
	m, _ := out.(map[string]any)
	return m
}

func (t *Transformer) decryptNode(node any) any {
	if envelope, ok := envelopeFromNode(node); ok {
		return t.openField(envelope)
	}

	switch n := node.(type) {
	case map[string]any:
		out := make(map[string]any, len(n))
		for key, value := range n {
			out[key] = t.decryptNode(value)
		}
		return out
	case []any:
		out := make([]any, len(n))
		for i, item := range n {
			out[i] = t.decryptNode(item)
		}
		return out
	default:
		return node
	}
}

// openField decrypts a single envelope, converting every failure into a
// marker string so the enclosing traversal keeps going.
func (t *Transformer) openField(envelope *FieldEnvelope) string {
	configured := t.engine.Algorithm().String()
	if envelope.Algorithm != "" && envelope.Algorithm != configured {
		// The stored tag is informational; the AEAD tag check decides.
		t.logger.Warn("envelope algorithm differs from engine, attempting anyway",
			slog.String("declared", envelope.Algorithm),
			slog.String("configured", configured))
	}

	plaintext, err := envelope.open(t.engine)
	if err != nil {
		kind := "invalid envelope"
		if IsAuthenticationError(err) {
			kind = "authentication failed"
		}
		t.logger.Warn("field decryption failed",
			slog.String("kind", kind),
			slog.String("error", err.Error()))
		return failureMarker(kind)
	}
	return plaintext
}
