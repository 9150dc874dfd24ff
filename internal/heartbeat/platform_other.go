//go:build !windows
// +build !windows

package heartbeat

// platformName defers to gopsutil outside Windows.
func platformName() (string, error) {
	return "", nil
}
