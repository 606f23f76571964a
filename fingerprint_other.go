//go:build !linux && !darwin && !windows

package confcrypt

// machineID falls back to a hash of hostname and home directory on
// platforms without a well-known hardware identifier.
func machineID() (string, error) {
	return hostFallbackID()
}
