package confcrypt

import (
	"github.com/zalando/go-keyring"
)

// KeyringDefaultAccount is the account name used when KeyOptions does not
// name one.
const KeyringDefaultAccount = "master-key"

// StoreKeyringSecret stores a master secret in the OS keyring so that
// later DeriveKeyMaterial calls with a matching KeyringService pick it up.
func StoreKeyringSecret(service, account, secret string) error {
	if account == "" {
		account = KeyringDefaultAccount
	}
	return keyring.Set(service, account, secret)
}

// DeleteKeyringSecret removes a master secret from the OS keyring.
func DeleteKeyringSecret(service, account string) error {
	if account == "" {
		account = KeyringDefaultAccount
	}
	return keyring.Delete(service, account)
}

// keyringSecret retrieves a master secret from the OS keyring. A missing
// entry or an unavailable keyring service is not an error; resolution
// falls through to the machine-fingerprint default.
func keyringSecret(service, account string) (string, bool) {
	if account == "" {
		account = KeyringDefaultAccount
	}
	secret, err := keyring.Get(service, account)
	if err != nil || secret == "" {
		return "", false
	}
	return secret, true
}
