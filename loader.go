package confcrypt

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
)

// DefaultSensitivePaths is the built-in path list applied by callers that
// do not curate their own. It covers the credential fields a typical
// service configuration carries.
var DefaultSensitivePaths = []string{
	"cloud.api_key",
	"cloud.secret_key",
	"cloud.access_token",
	"database.password",
	"auth.secret",
	"api.key",
	"service.credentials",
	"credentials.password",
	"smtp.password",
}

// LoadConfigFile reads a JSON or YAML configuration file (selected by
// extension) and decrypts every field envelope it contains.
func (t *Transformer) LoadConfigFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file: %w", err)
	}

	var doc map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("cannot parse %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("cannot parse %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", path)
	}

	return t.DecryptDocument(doc), nil
}

// SaveConfigFile encrypts the leaves addressed by paths and writes the
// document to a JSON or YAML file selected by extension.
func (t *Transformer) SaveConfigFile(doc map[string]any, path string, paths []string) error {
	encrypted, err := t.EncryptDocument(doc, paths)
	if err != nil {
		return err
	}

	var data []byte
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(encrypted, "", "  ")
	case ".yaml", ".yml":
		data, err = yaml.Marshal(encrypted)
	default:
		return fmt.Errorf("unsupported config file format: %s", path)
	}
	if err != nil {
		return fmt.Errorf("cannot encode %s: %w", path, err)
	}

	if dir := filepath.Dir(path); dir != "." && dir != "/" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create directory for %s: %w", path, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write config file: %w", err)
	}
	return nil
}
