//go:build windows
// +build windows

package heartbeat

import (
	"errors"
	"strings"

	"github.com/yusufpapurcu/wmi"
)

type win32OperatingSystem struct {
	Caption string
	Version string
}

// platformName reads the marketing name of the OS, which is more useful in
// a beat than the bare build number gopsutil reports.
func platformName() (string, error) {
	var dst []win32OperatingSystem
	if err := wmi.Query(wmi.CreateQuery(&dst, ""), &dst); err != nil {
		return "", err
	}
	if len(dst) == 0 {
		return "", errors.New("no Win32_OperatingSystem instance")
	}
	return strings.TrimSpace(dst[0].Caption + " " + dst[0].Version), nil
}
