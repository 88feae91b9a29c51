package config

import (
	"fmt"
	"slices"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue
	add := func(path, format string, args ...any) {
		issues = append(issues, ValidationIssue{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	validPlatforms := []string{"slack", "irc"}
	if !slices.Contains(validPlatforms, cfg.Platform) {
		add("platform", "must be one of %v, got %q", validPlatforms, cfg.Platform)
	}

	switch cfg.Platform {
	case "slack":
		if cfg.Slack == nil {
			add("slack", "required when platform is slack")
			break
		}
		if cfg.Slack.BotToken == "" {
			add("slack.botToken", "bot token is required")
		}
		if cfg.Slack.AppToken == "" {
			add("slack.appToken", "app-level token is required for Socket Mode")
		}
	case "irc":
		if cfg.IRC == nil {
			add("irc", "required when platform is irc")
			break
		}
		if cfg.IRC.Server == "" {
			add("irc.server", "server is required")
		}
		if cfg.IRC.Nick == "" {
			add("irc.nick", "nick is required")
		}
		if cfg.IRC.Port < 0 || cfg.IRC.Port > 65535 {
			add("irc.port", "port must be 0-65535, got %d", cfg.IRC.Port)
		}
		if cfg.IRC.SASL && cfg.IRC.Password == "" {
			add("irc.sasl", "SASL requires a password to be set")
		}
	}

	if cfg.Dispatch.PollInterval < 0 {
		add("dispatch.pollInterval", "must not be negative")
	}
	if cfg.Session.TTL < 0 {
		add("session.ttl", "must not be negative")
	}
	if cfg.Session.TTL > 0 && cfg.Session.SweepInterval <= 0 {
		add("session.sweepInterval", "must be positive when session.ttl is set")
	}

	if cfg.Admin.Enabled {
		if cfg.Admin.Port < 0 || cfg.Admin.Port > 65535 {
			add("admin.port", "port must be 0-65535, got %d", cfg.Admin.Port)
		}
		validBinds := []string{"loopback", "lan", "custom"}
		if !slices.Contains(validBinds, cfg.Admin.Bind) {
			add("admin.bind", "must be one of %v, got %q", validBinds, cfg.Admin.Bind)
		}
		if cfg.Admin.Token == "" {
			add("admin.token", "token is required when the admin server is enabled")
		}
	}

	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		add("logging.level", "must be one of %v, got %q", validLogLevels, cfg.Logging.Level)
	}
	validConsoleStyles := []string{"pretty", "json"}
	if cfg.Logging.ConsoleStyle != "" && !slices.Contains(validConsoleStyles, cfg.Logging.ConsoleStyle) {
		add("logging.consoleStyle", "must be one of %v, got %q", validConsoleStyles, cfg.Logging.ConsoleStyle)
	}

	return issues
}
