//go:build darwin

package confcrypt

import (
	"os/exec"
	"strings"
)

// machineID returns the IOPlatformUUID reported by ioreg, falling back to
// a hash of hostname and home directory.
func machineID() (string, error) {
	out, err := exec.Command("ioreg", "-rd1", "-c", "IOPlatformExpertDevice").Output()
	if err == nil {
		for _, line := range strings.Split(string(out), "\n") {
			if !strings.Contains(line, "IOPlatformUUID") {
				continue
			}
			parts := strings.Split(line, "\"")
			// "IOPlatformUUID" = "XXXXXXXX-..."
			if len(parts) >= 4 && parts[3] != "" {
				return parts[3], nil
			}
		}
	}
	return hostFallbackID()
}
