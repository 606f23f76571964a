package confcrypt

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/absfs/absfs"
	"github.com/google/uuid"
	"golang.org/x/crypto/pbkdf2"
)

// KeyFileType is the key_type marker written into every key file.
const KeyFileType = "confcrypt-encryption-key"

// KeyFile is the durable on-disk descriptor for key material. The derived
// key itself is never persisted; it is rederived from master_key and salt
// on load.
type KeyFile struct {
	MasterKey string    `json:"master_key"`
	Salt      string    `json:"salt"`
	Algorithm string    `json:"algorithm"`
	CreatedAt time.Time `json:"created_at"`
	KeyType   string    `json:"key_type"`
	KeyID     string    `json:"key_id,omitempty"`
}

// KeyFileStore persists and loads key files on an absfs filesystem.
// It provides no concurrency control for multiple writers to one path;
// last write wins.
type KeyFileStore struct {
	fs absfs.FileSystem
}

// NewKeyFileStore creates a store over the given filesystem. A nil
// filesystem means the host OS.
func NewKeyFileStore(fs absfs.FileSystem) *KeyFileStore {
	if fs == nil {
		fs = osFS{}
	}
	return &KeyFileStore{fs: fs}
}

// Save writes the key material's descriptor to path. It fails with a
// KeyFileError wrapping ErrKeyFileExists unless overwrite is set. After
// creation the file is restricted to owner read/write; platforms without
// that capability are tolerated.
func (s *KeyFileStore) Save(m *KeyMaterial, path string, overwrite bool) error {
	if !overwrite {
		if _, err := s.fs.Stat(path); err == nil {
			return &KeyFileError{Path: path, Message: "already exists", Err: ErrKeyFileExists}
		}
	}

	kf := &KeyFile{
		MasterKey: m.masterKey,
		Salt:      base64.StdEncoding.EncodeToString(m.salt),
		Algorithm: m.algorithm.String(),
		CreatedAt: time.Now().UTC(),
		KeyType:   KeyFileType,
		KeyID:     m.keyID,
	}

	data, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return &KeyFileError{Path: path, Message: "cannot encode key file", Err: err}
	}

	if dir := filepath.Dir(path); dir != "." && dir != "/" {
		if err := s.fs.MkdirAll(dir, 0o700); err != nil {
			return &KeyFileError{Path: path, Message: "cannot create directory", Err: err}
		}
	}

	f, err := s.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return &KeyFileError{Path: path, Message: "cannot write key file", Err: err}
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return &KeyFileError{Path: path, Message: "cannot write key file", Err: err}
	}
	if err := f.Close(); err != nil {
		return &KeyFileError{Path: path, Message: "cannot write key file", Err: err}
	}

	// Best effort; not all filesystems support permission bits.
	_ = s.fs.Chmod(path, 0o600)

	return nil
}

// Load reads a key file and rederives its key material. A missing,
// unreadable, or structurally invalid file yields a KeyFileError.
func (s *KeyFileStore) Load(path string) (*KeyMaterial, error) {
	kf, err := readKeyFile(s.fs, path)
	if err != nil {
		return nil, err
	}

	if kf.MasterKey == "" {
		return nil, &KeyFileError{Path: path, Message: "missing master_key"}
	}
	salt, err := base64.StdEncoding.DecodeString(kf.Salt)
	if err != nil {
		return nil, &KeyFileError{Path: path, Message: "invalid base64 salt", Err: err}
	}

	algorithm := AlgorithmAES256GCM
	if kf.Algorithm != "" {
		algorithm, err = ParseAlgorithm(kf.Algorithm)
		if err != nil {
			return nil, &KeyFileError{Path: path, Message: "unknown algorithm", Err: err}
		}
	}

	key := pbkdf2.Key([]byte(kf.MasterKey), salt, DefaultIterations, KeySize, sha256.New)

	return &KeyMaterial{
		key:        key,
		salt:       salt,
		masterKey:  kf.MasterKey,
		algorithm:  algorithm,
		iterations: DefaultIterations,
		keyID:      kf.KeyID,
	}, nil
}

// Generate creates fresh random key material, assigns it a key ID, and
// persists it at path.
func (s *KeyFileStore) Generate(path string, algorithm Algorithm, overwrite bool) (*KeyMaterial, error) {
	secret := make([]byte, KeySize)
	if _, err := rand.Read(secret); err != nil {
		return nil, &KeyDerivationError{Source: "random", Message: "randomness source unavailable", Err: err}
	}
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, &KeyDerivationError{Source: "random", Message: "randomness source unavailable", Err: err}
	}

	master := hex.EncodeToString(secret)
	key := pbkdf2.Key([]byte(master), salt, DefaultIterations, KeySize, sha256.New)

	m := &KeyMaterial{
		key:        key,
		salt:       salt,
		masterKey:  master,
		algorithm:  algorithm,
		iterations: DefaultIterations,
		keyID:      uuid.NewString(),
	}

	if err := s.Save(m, path, overwrite); err != nil {
		return nil, err
	}
	return m, nil
}

func readKeyFile(fs absfs.FileSystem, path string) (*KeyFile, error) {
	if fs == nil {
		fs = osFS{}
	}

	f, err := fs.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &KeyFileError{Path: path, Message: "not found", Err: ErrKeyFileNotFound}
		}
		return nil, &KeyFileError{Path: path, Message: "cannot open key file", Err: err}
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, &KeyFileError{Path: path, Message: "cannot read key file", Err: err}
	}

	var kf KeyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, &KeyFileError{Path: path, Message: "invalid key file", Err: err}
	}
	return &kf, nil
}

// osFS adapts the host OS to absfs.FileSystem for the common case of key
// files living on local disk.
type osFS struct{}

func (osFS) OpenFile(name string, flag int, perm os.FileMode) (absfs.File, error) {
	return os.OpenFile(name, flag, perm)
}

func (osFS) Open(name string) (absfs.File, error)   { return os.Open(name) }
func (osFS) Create(name string) (absfs.File, error) { return os.Create(name) }

func (osFS) Mkdir(name string, perm os.FileMode) error    { return os.Mkdir(name, perm) }
func (osFS) MkdirAll(name string, perm os.FileMode) error { return os.MkdirAll(name, perm) }
func (osFS) Remove(name string) error                     { return os.Remove(name) }
func (osFS) RemoveAll(path string) error                  { return os.RemoveAll(path) }
func (osFS) Rename(oldpath, newpath string) error         { return os.Rename(oldpath, newpath) }
func (osFS) Stat(name string) (os.FileInfo, error)        { return os.Stat(name) }
func (osFS) Chmod(name string, mode os.FileMode) error    { return os.Chmod(name, mode) }
func (osFS) Chown(name string, uid, gid int) error        { return os.Chown(name, uid, gid) }
func (osFS) Truncate(name string, size int64) error       { return os.Truncate(name, size) }

func (osFS) Chtimes(name string, atime, mtime time.Time) error {
	return os.Chtimes(name, atime, mtime)
}

func (osFS) Separator() uint8     { return os.PathSeparator }
func (osFS) ListSeparator() uint8 { return os.PathListSeparator }
func (osFS) Chdir(dir string) error {
	return os.Chdir(dir)
}
func (osFS) Getwd() (string, error) { return os.Getwd() }
func (osFS) TempDir() string        { return os.TempDir() }
