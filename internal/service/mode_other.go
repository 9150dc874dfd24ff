//go:build !windows
// +build !windows

package service

import "os"

// DetectRunMode reports Unattended when stdin is not a terminal, which is
// how systemd and similar managers start services.
func DetectRunMode() RunMode {
	return modeFromStdin(os.Stdin.Stat())
}

func modeFromStdin(fi os.FileInfo, err error) RunMode {
	if err != nil {
		return Interactive
	}
	if fi.Mode()&os.ModeCharDevice == 0 {
		return Unattended
	}
	return Interactive
}
