//go:build !windows
// +build !windows

package service

// Install returns ErrUnsupported. Unix services are registered with a unit
// file instead.
func Install(cfg ServiceConfig) error {
	return ErrUnsupported
}

// Uninstall returns ErrUnsupported.
func Uninstall(name string) error {
	return ErrUnsupported
}
