//go:build !windows
// +build !windows

package service

// ReportStartupError does nothing outside Windows; startup errors reach the
// journal through stderr.
func ReportStartupError(source string, err error) {}
