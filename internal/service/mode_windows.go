//go:build windows
// +build windows

package service

import "golang.org/x/sys/windows/svc"

// DetectRunMode reports Unattended when the process was started by the
// Service Control Manager.
func DetectRunMode() RunMode {
	isService, err := svc.IsWindowsService()
	if err != nil || !isService {
		return Interactive
	}
	return Unattended
}
