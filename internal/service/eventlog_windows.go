//go:build windows
// +build windows

package service

import (
	"fmt"

	"golang.org/x/sys/windows/svc/eventlog"
)

// ReportStartupError writes err to the Windows Event Log under source, so
// "net start" failures are visible before the logger exists.
func ReportStartupError(source string, err error) {
	// registering an existing source is harmless
	_ = eventlog.InstallAsEventCreate(source, eventlog.Error|eventlog.Warning|eventlog.Info)

	elog, openErr := eventlog.Open(source)
	if openErr != nil {
		return
	}
	defer elog.Close()

	elog.Error(1, fmt.Sprintf("%s failed to start: %v", source, err))
}
