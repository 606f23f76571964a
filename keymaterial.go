package confcrypt

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"
	"os/user"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// EnvMasterKey is the default environment variable supplying the
	// master secret.
	EnvMasterKey = "CONFCRYPT_MASTER_KEY"

	// EnvSalt is the default environment variable supplying a base64
	// encoded derivation salt.
	EnvSalt = "CONFCRYPT_SALT"

	// appSalt is mixed into the machine-fingerprint default secret. Fixed
	// so the same machine and user always derive the same key.
	appSalt = "confcrypt-2024-static-salt"
)

// DeriveKeyMaterial resolves a master secret and salt per the priority
// rules documented on KeyOptions and derives a 32-byte key with
// PBKDF2-HMAC-SHA-256.
//
// The zero-options call succeeds on any host with a readable OS identity
// and yields a key that is stable for that machine and user. This
// convenience mode provides no secrecy against other local users; see the
// package documentation.
func DeriveKeyMaterial(opts KeyOptions) (*KeyMaterial, error) {
	algorithm := opts.Algorithm
	iterations := opts.Iterations
	if iterations == 0 {
		iterations = DefaultIterations
	}

	master := opts.Secret
	salt := opts.Salt
	keyID := ""

	if master == "" && opts.KeyFilePath != "" {
		kf, err := readKeyFile(opts.FS, opts.KeyFilePath)
		if err != nil {
			return nil, err
		}
		master = kf.MasterKey
		keyID = kf.KeyID
		if salt == nil {
			decoded, err := base64.StdEncoding.DecodeString(kf.Salt)
			if err != nil {
				return nil, &KeyFileError{Path: opts.KeyFilePath, Message: "invalid base64 salt", Err: err}
			}
			salt = decoded
		}
		if kf.Algorithm != "" {
			alg, err := ParseAlgorithm(kf.Algorithm)
			if err != nil {
				return nil, &KeyFileError{Path: opts.KeyFilePath, Message: "unknown algorithm", Err: err}
			}
			algorithm = alg
		}
	}

	if master == "" {
		envVar := opts.EnvVar
		if envVar == "" {
			envVar = EnvMasterKey
		}
		master = os.Getenv(envVar)
	}

	if master == "" && opts.KeyringService != "" {
		if secret, ok := keyringSecret(opts.KeyringService, opts.KeyringAccount); ok {
			master = secret
		}
	}

	if master == "" {
		def, err := defaultMasterKey()
		if err != nil {
			return nil, err
		}
		master = def
	}

	if salt == nil {
		saltVar := opts.SaltEnvVar
		if saltVar == "" {
			saltVar = EnvSalt
		}
		if encoded := os.Getenv(saltVar); encoded != "" {
			// An undecodable env salt falls back to the machine-derived
			// default rather than failing.
			if decoded, err := base64.StdEncoding.DecodeString(encoded); err == nil {
				salt = decoded
			}
		}
	}
	if salt == nil {
		machineSalt, err := deriveMachineSalt()
		if err != nil {
			return nil, err
		}
		salt = machineSalt
	}

	key := pbkdf2.Key([]byte(master), salt, iterations, KeySize, sha256.New)

	return &KeyMaterial{
		key:        key,
		salt:       salt,
		masterKey:  master,
		algorithm:  algorithm,
		iterations: iterations,
		keyID:      keyID,
	}, nil
}

// defaultMasterKey builds the machine-fingerprint passphrase: a SHA-256
// hex digest over the machine identifier, the current username, and the
// fixed application salt.
func defaultMasterKey() (string, error) {
	id, err := machineID()
	if err != nil {
		return "", &KeyDerivationError{Source: "machine-id", Message: "machine identity unavailable", Err: err}
	}

	username, err := currentUsername()
	if err != nil {
		return "", err
	}

	combined := fmt.Sprintf("%s:%s:%s", id, username, appSalt)
	digest := sha256.Sum256([]byte(combined))
	return hex.EncodeToString(digest[:]), nil
}

// deriveMachineSalt builds the deterministic per-machine default salt,
// truncated to SaltSize bytes.
func deriveMachineSalt() ([]byte, error) {
	id, err := machineID()
	if err != nil {
		return nil, &KeyDerivationError{Source: "machine-id", Message: "machine identity unavailable", Err: err}
	}

	username, err := currentUsername()
	if err != nil {
		return nil, err
	}

	fixed := fmt.Sprintf("confcrypt-salt-%s-%s", id, username)
	digest := sha256.Sum256([]byte(fixed))
	return digest[:SaltSize], nil
}

func currentUsername() (string, error) {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username, nil
	}
	for _, envVar := range []string{"USER", "USERNAME", "LOGNAME"} {
		if name := os.Getenv(envVar); name != "" {
			return name, nil
		}
	}
	return "", &KeyDerivationError{Source: "username", Message: "cannot determine current user"}
}
