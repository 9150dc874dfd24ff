package service

// ServiceConfig describes a service registration.
type ServiceConfig struct {
	Name        string
	DisplayName string
	Description string
	ExePath     string
	Args        []string
}
