//go:build linux

package confcrypt

import (
	"os"
	"strings"
)

// machineIDFiles are consulted in order for a stable OS identifier.
var machineIDFiles = []string{
	"/etc/machine-id",
	"/var/lib/dbus/machine-id",
	"/sys/class/dmi/id/product_uuid",
}

// machineID returns a stable per-machine identifier. It prefers the
// systemd/dbus machine ID, then the DMI product UUID, then a hash of
// hostname and home directory.
func machineID() (string, error) {
	for _, path := range machineIDFiles {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if id := strings.TrimSpace(string(data)); id != "" {
			return id, nil
		}
	}
	return hostFallbackID()
}
