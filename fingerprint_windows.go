//go:build windows

package confcrypt

import (
	"os/exec"
	"strings"

	"golang.org/x/sys/windows/registry"
)

// machineID returns the hardware UUID from WMI, then the cryptography
// MachineGuid from the registry, then a hash of hostname and home
// directory.
func machineID() (string, error) {
	if out, err := exec.Command("wmic", "csproduct", "get", "uuid").Output(); err == nil {
		lines := strings.Split(string(out), "\n")
		for _, line := range lines[1:] {
			if id := strings.TrimSpace(line); id != "" {
				return id, nil
			}
		}
	}

	key, err := registry.OpenKey(registry.LOCAL_MACHINE, `SOFTWARE\Microsoft\Cryptography`, registry.QUERY_VALUE)
	if err == nil {
		defer key.Close()
		if guid, _, err := key.GetStringValue("MachineGuid"); err == nil && guid != "" {
			return guid, nil
		}
	}

	return hostFallbackID()
}
