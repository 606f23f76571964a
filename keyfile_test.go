package confcrypt

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/absfs/memfs"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemStore(t *testing.T) *KeyFileStore {
	t.Helper()
	fs, err := memfs.NewFS()
	require.NoError(t, err)
	return NewKeyFileStore(fs)
}

func TestKeyFileSaveLoadRoundTrip(t *testing.T) {
	store := newMemStore(t)

	original, err := DeriveKeyMaterial(KeyOptions{
		Secret:    "persisted-secret",
		Salt:      []byte("fixed-salt-16byt"),
		Algorithm: AlgorithmChaCha20Poly1305,
	})
	require.NoError(t, err)

	require.NoError(t, store.Save(original, "/keys/master.json", false))

	loaded, err := store.Load("/keys/master.json")
	require.NoError(t, err)

	assert.True(t, bytes.Equal(original.key, loaded.key))
	assert.Equal(t, original.Algorithm(), loaded.Algorithm())

	// The reloaded material decrypts data encrypted before the save.
	encrypter, err := original.Engine()
	require.NoError(t, err)
	decrypter, err := loaded.Engine()
	require.NoError(t, err)

	ciphertext, nonce, err := encrypter.Encrypt([]byte("survives persistence"), nil)
	require.NoError(t, err)
	plaintext, err := decrypter.Decrypt(ciphertext, nonce, nil)
	require.NoError(t, err)
	assert.Equal(t, "survives persistence", string(plaintext))
}

func TestKeyFileSaveRefusesOverwrite(t *testing.T) {
	store := newMemStore(t)

	m, err := DeriveKeyMaterial(KeyOptions{Secret: "s", Salt: []byte("fixed-salt-16byt")})
	require.NoError(t, err)

	require.NoError(t, store.Save(m, "/master.json", false))

	err = store.Save(m, "/master.json", false)
	require.Error(t, err)
	assert.True(t, IsKeyFileError(err))
	assert.True(t, errors.Is(err, ErrKeyFileExists))

	assert.NoError(t, store.Save(m, "/master.json", true))
}

func TestKeyFileLoadMissing(t *testing.T) {
	store := newMemStore(t)

	_, err := store.Load("/no/such/key.json")
	require.Error(t, err)
	assert.True(t, IsKeyFileError(err))
}

func TestKeyFileLoadCorrupt(t *testing.T) {
	fs, err := memfs.NewFS()
	require.NoError(t, err)
	store := NewKeyFileStore(fs)

	f, err := fs.Create("/corrupt.json")
	require.NoError(t, err)
	_, err = f.Write([]byte("{ not json"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = store.Load("/corrupt.json")
	require.Error(t, err)
	assert.True(t, IsKeyFileError(err))
}

func TestKeyFileLoadRejectsBadFields(t *testing.T) {
	fs, err := memfs.NewFS()
	require.NoError(t, err)
	store := NewKeyFileStore(fs)

	cases := map[string]KeyFile{
		"missing master": {Salt: "AAAA", Algorithm: "AES-256-GCM", KeyType: KeyFileType},
		"bad salt":       {MasterKey: "m", Salt: "%%%", Algorithm: "AES-256-GCM", KeyType: KeyFileType},
		"bad algorithm":  {MasterKey: "m", Salt: "AAAA", Algorithm: "ROT13", KeyType: KeyFileType},
	}

	for name, kf := range cases {
		t.Run(name, func(t *testing.T) {
			data, err := json.Marshal(kf)
			require.NoError(t, err)

			path := "/" + uuid.NewString() + ".json"
			f, err := fs.Create(path)
			require.NoError(t, err)
			_, err = f.Write(data)
			require.NoError(t, err)
			require.NoError(t, f.Close())

			_, err = store.Load(path)
			assert.True(t, IsKeyFileError(err))
		})
	}
}

func TestGenerateKeyFile(t *testing.T) {
	store := newMemStore(t)

	m1, err := store.Generate("/k1.json", AlgorithmAES256GCM, false)
	require.NoError(t, err)
	m2, err := store.Generate("/k2.json", AlgorithmAES256GCM, false)
	require.NoError(t, err)

	// Fresh randomness per file.
	assert.False(t, bytes.Equal(m1.key, m2.key))

	_, err = uuid.Parse(m1.KeyID())
	assert.NoError(t, err)

	loaded, err := store.Load("/k1.json")
	require.NoError(t, err)
	assert.True(t, bytes.Equal(m1.key, loaded.key))
	assert.Equal(t, m1.KeyID(), loaded.KeyID())
}

func TestKeyFileShape(t *testing.T) {
	fs, err := memfs.NewFS()
	require.NoError(t, err)
	store := NewKeyFileStore(fs)

	_, err = store.Generate("/shape.json", AlgorithmChaCha20Poly1305, false)
	require.NoError(t, err)

	f, err := fs.Open("/shape.json")
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	var kf KeyFile
	require.NoError(t, json.Unmarshal(data, &kf))
	assert.Equal(t, KeyFileType, kf.KeyType)
	assert.Equal(t, "ChaCha20-Poly1305", kf.Algorithm)
	assert.NotEmpty(t, kf.MasterKey)
	assert.NotEmpty(t, kf.Salt)
	assert.False(t, kf.CreatedAt.IsZero())
}

func TestKeyFilePermissionsOnDisk(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX permission bits")
	}

	store := NewKeyFileStore(nil)
	path := filepath.Join(t.TempDir(), "master.json")

	_, err := store.Generate(path, AlgorithmAES256GCM, false)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0), info.Mode().Perm()&0o077,
		"key file must be owner read/write only")
}

func TestDeriveKeyMaterialFromKeyFile(t *testing.T) {
	fs, err := memfs.NewFS()
	require.NoError(t, err)
	store := NewKeyFileStore(fs)

	generated, err := store.Generate("/master.json", AlgorithmChaCha20Poly1305, false)
	require.NoError(t, err)

	derived, err := DeriveKeyMaterial(KeyOptions{KeyFilePath: "/master.json", FS: fs})
	require.NoError(t, err)

	assert.True(t, bytes.Equal(generated.key, derived.key))
	assert.Equal(t, AlgorithmChaCha20Poly1305, derived.Algorithm())
	assert.Equal(t, generated.KeyID(), derived.KeyID())
}

func TestDeriveKeyMaterialMissingKeyFileIsFatal(t *testing.T) {
	fs, err := memfs.NewFS()
	require.NoError(t, err)

	_, err = DeriveKeyMaterial(KeyOptions{KeyFilePath: "/absent.json", FS: fs})
	require.Error(t, err)
	assert.True(t, IsKeyFileError(err))
}
