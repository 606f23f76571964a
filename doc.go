// Package confcrypt provides field-level encryption for nested
// configuration documents: it selectively encrypts designated sensitive
// leaf values in place, keeps the document structurally unchanged, and
// later locates and decrypts every encrypted leaf regardless of path,
// with per-field failure isolation.
//
// # Overview
//
// A document is an arbitrary tree of string-keyed mappings, sequences,
// and scalars (the shape JSON and YAML codecs naturally produce).
// Sensitive leaves are addressed with dotted paths such as
// "db.credentials[0].password". Once encrypted, a leaf is replaced by a
// self-describing envelope:
//
//	{"encrypted": true, "algorithm": "AES-256-GCM",
//	 "data": "<base64>", "nonce": "<base64>"}
//
// so decryption needs no external path knowledge: DecryptDocument walks
// the whole tree and opens every envelope it finds. Documents are never
// mutated; every transform returns a new tree.
//
// # Supported Cipher Suites
//
//   - AES-256-GCM: Advanced Encryption Standard with 256-bit keys and
//     Galois/Counter Mode for authenticated encryption
//   - ChaCha20-Poly1305: Modern stream cipher with Poly1305 message
//     authentication
//
// Both provide AEAD with 128-bit authentication tags and fresh random
// 12-byte nonces on every encryption.
//
// # Basic Usage
//
//	material, err := confcrypt.DeriveKeyMaterial(confcrypt.KeyOptions{
//	    Secret: "my-master-secret",
//	})
//	if err != nil {
//	    panic(err)
//	}
//
//	engine, err := material.Engine()
//	if err != nil {
//	    panic(err)
//	}
//
//	t := confcrypt.NewTransformer(engine)
//
//	doc := map[string]any{
//	    "db": map[string]any{"host": "localhost", "password": "p@ss1"},
//	}
//	sealed, err := t.EncryptDocument(doc, []string{"db.password"})
//	if err != nil {
//	    panic(err)
//	}
//
//	// ... persist sealed with any JSON/YAML codec, reload it later ...
//
//	opened := t.DecryptDocument(sealed)
//
// # Key Resolution
//
// DeriveKeyMaterial resolves the master secret in priority order: the
// explicit Secret option, a key file, the environment variable
// (CONFCRYPT_MASTER_KEY by default), the OS keyring when opted in, and
// finally a machine-fingerprint default. The key itself is derived with
// PBKDF2-HMAC-SHA-256 at 100,000 iterations.
//
// # Convenience Mode Is Not A Security Boundary
//
// The zero-configuration default derives its passphrase from a stable
// machine identifier, the current username, and a fixed application
// salt. That makes encryption work with no setup and keeps the key
// repeatable on one host, but anyone with local access to the same
// machine and account can rederive it. Treat it as obfuscation for
// casual inspection of config files, not as secrecy against an attacker
// with local machine access. Supply a real secret, key file, or keyring
// entry for anything stronger.
//
// # Failure Isolation
//
// Decryption failures are contained per field: a tampered or wrong-key
// envelope becomes a distinguishable failure-marker string (see
// IsFailureMarker) while the rest of the document decrypts normally.
// Encryption is fail-open by default, skipping absent or non-string
// leaves with a logged warning; WithStrictEncrypt turns any skipped or
// failed encryption into a hard error.
package confcrypt
