// Package config provides configuration management for the nssm executor.
package config

import (
	"fmt"
	"time"
)

// Startup modes accepted in service declarations.
const (
	StartupAutomatic = "automatic"
	StartupManual    = "manual"
	StartupDisabled  = "disabled"
)

// Config is the root configuration structure.
type Config struct {
	// ManagerPath is the path to the nssm executable.
	ManagerPath string

	// Poll controls status polling after stop and start commands.
	Poll PollConfig

	// Global holds defaults applied to every service. A value set on a
	// service always overrides the global one.
	Global ServiceDefaults

	// Services lists the managed services in declaration order.
	// Declaration order is the fallback execution order for services
	// without dependency relations.
	Services []Service
}

// PollConfig controls how long to wait for a service to reach the
// expected state after a stop or start command.
type PollConfig struct {
	StopInterval  time.Duration
	StopCount     int
	StartInterval time.Duration
	StartCount    int
}

// ServiceDefaults holds settings that may be declared globally and
// overridden per service.
type ServiceDefaults struct {
	Startup       string
	StartOnCreate *bool
	Account       *Account
}

// Account groups the Windows account a service runs under. An empty
// password is allowed for accounts that do not require one.
type Account struct {
	User     string
	Password string
}

// Service describes one Windows service to manage.
type Service struct {
	// Name is the unique service identifier passed to the manager.
	Name string

	// Path is the service executable. Existence is not checked at load
	// time; a bad path surfaces when the manager runs the service.
	Path string

	// Args are passed to the executable, in order.
	Args []string

	// WorkingDir is the startup directory. When empty the manager
	// defaults to the executable's directory.
	WorkingDir string

	// DisplayName is the human-readable name shown by the service
	// manager. Empty keeps the manager's default (the service name).
	DisplayName string

	// Description is registered with the manager when non-empty.
	Description string

	// Startup is one of the Startup* constants. Empty falls back to
	// the global default, then to StartupAutomatic.
	Startup string

	// DependsOn lists names of services this one depends on. It drives
	// both execution ordering and the manager's dependency registration.
	DependsOn []string

	// StartOnCreate controls whether a recreate starts the service
	// after installing it. Nil falls back to the global default, then
	// to true.
	StartOnCreate *bool

	// Account, when set, is registered as the service logon account.
	Account *Account
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Poll: PollConfig{
			StopInterval:  500 * time.Millisecond,
			StopCount:     5,
			StartInterval: 500 * time.Millisecond,
			StartCount:    5,
		},
	}
}

// Merge applies non-zero values from other to this config.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.ManagerPath != "" {
		c.ManagerPath = other.ManagerPath
	}

	if other.Poll.StopInterval > 0 {
		c.Poll.StopInterval = other.Poll.StopInterval
	}
	if other.Poll.StopCount > 0 {
		c.Poll.StopCount = other.Poll.StopCount
	}
	if other.Poll.StartInterval > 0 {
		c.Poll.StartInterval = other.Poll.StartInterval
	}
	if other.Poll.StartCount > 0 {
		c.Poll.StartCount = other.Poll.StartCount
	}

	if other.Global.Startup != "" {
		c.Global.Startup = other.Global.Startup
	}
	if other.Global.StartOnCreate != nil {
		c.Global.StartOnCreate = other.Global.StartOnCreate
	}
	if other.Global.Account != nil {
		c.Global.Account = other.Global.Account
	}

	if len(other.Services) > 0 {
		c.Services = other.Services
	}
}

// ApplyGlobals fills unset per-service fields from the global defaults,
// then from the built-in defaults (startup automatic, start on create).
func (c *Config) ApplyGlobals() {
	for i := range c.Services {
		svc := &c.Services[i]

		if svc.Startup == "" {
			svc.Startup = c.Global.Startup
		}
		if svc.Startup == "" {
			svc.Startup = StartupAutomatic
		}

		if svc.StartOnCreate == nil {
			svc.StartOnCreate = c.Global.StartOnCreate
		}
		if svc.StartOnCreate == nil {
			t := true
			svc.StartOnCreate = &t
		}

		if svc.Account == nil {
			svc.Account = c.Global.Account
		}
	}
}

// Validate rejects configurations that violate the model invariants.
// The first violation found is returned; nothing is executed on error.
func (c *Config) Validate() error {
	if c.ManagerPath == "" {
		return &Error{Kind: KindMissingField, Field: "nssm_path"}
	}

	seen := make(map[string]struct{}, len(c.Services))
	for i := range c.Services {
		svc := &c.Services[i]

		if svc.Name == "" {
			return &Error{Kind: KindMissingField, Service: placeholderName(i), Field: "name"}
		}
		if svc.Path == "" {
			return &Error{Kind: KindMissingField, Service: svc.Name, Field: "path"}
		}

		if _, dup := seen[svc.Name]; dup {
			return &Error{Kind: KindDuplicateName, Service: svc.Name}
		}
		seen[svc.Name] = struct{}{}

		switch svc.Startup {
		case StartupAutomatic, StartupManual, StartupDisabled:
		default:
			return &Error{Kind: KindInvalidEnum, Service: svc.Name, Field: "startup", Value: svc.Startup}
		}
	}

	return nil
}

// ServiceNames returns the configured service names in declaration order.
func (c *Config) ServiceNames() []string {
	names := make([]string, len(c.Services))
	for i := range c.Services {
		names[i] = c.Services[i].Name
	}
	return names
}

// placeholderName identifies a service entry that has no name yet.
func placeholderName(index int) string {
	return fmt.Sprintf("services[%d]", index)
}
