package confcrypt

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
)

// hostFallbackID derives a stable identifier from the hostname and home
// directory when no platform hardware or OS UUID is available.
func hostFallbackID() (string, error) {
	hostname, hostErr := os.Hostname()
	home, homeErr := os.UserHomeDir()
	if hostErr != nil && homeErr != nil {
		return "", fmt.Errorf("no usable host identity: %w", hostErr)
	}

	digest := sha256.Sum256([]byte(fmt.Sprintf("%s:%s", hostname, home)))
	return hex.EncodeToString(digest[:]), nil
}
