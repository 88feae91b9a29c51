// Package config loads and validates standupbot configuration.
package config

import (
	"fmt"
	"time"
)

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

const (
	defaultPollInterval  = time.Second
	defaultSweepInterval = time.Minute
	defaultAdminPort     = 18790
)

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Platform: "slack",
		Dispatch: DispatchConfig{
			PollInterval: defaultPollInterval,
		},
		Session: SessionConfig{
			SweepInterval: defaultSweepInterval,
		},
		Admin: AdminConfig{
			Port: defaultAdminPort,
			Bind: "loopback",
		},
		Logging: LoggingConfig{
			Level:        "info",
			ConsoleStyle: "pretty",
		},
	}
}
