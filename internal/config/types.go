package config

import "time"

// Config is the root configuration for standupbot.
type Config struct {
	Platform string         `yaml:"platform,omitempty"` // "slack" | "irc"
	Slack    *SlackConfig   `yaml:"slack,omitempty"`
	IRC      *IRCConfig     `yaml:"irc,omitempty"`
	Dispatch DispatchConfig `yaml:"dispatch,omitempty"`
	Session  SessionConfig  `yaml:"session,omitempty"`
	Admin    AdminConfig    `yaml:"admin,omitempty"`
	Roster   RosterConfig   `yaml:"roster,omitempty"`
	Logging  LoggingConfig  `yaml:"logging,omitempty"`
	Hooks    HooksConfig    `yaml:"hooks,omitempty"`
}

// SlackConfig holds Slack credentials. The bot token authorizes Web API
// calls; the app-level token opens Socket Mode connections.
type SlackConfig struct {
	BotToken string `yaml:"botToken"`
	AppToken string `yaml:"appToken"`
	APIURL   string `yaml:"apiUrl,omitempty"` // defaults to https://slack.com/api/
}

// IRCConfig defines IRC transport settings.
type IRCConfig struct {
	Server   string   `yaml:"server"`
	Port     int      `yaml:"port,omitempty"`
	Nick     string   `yaml:"nick"`
	Password string   `yaml:"password,omitempty"`
	Channels []string `yaml:"channels"`
	UseTLS   bool     `yaml:"useTLS,omitempty"`
	SASL     bool     `yaml:"sasl,omitempty"`
}

// DispatchConfig controls the event loop.
type DispatchConfig struct {
	PollInterval time.Duration `yaml:"pollInterval,omitempty"`
	IgnoreSelf   *bool         `yaml:"ignoreSelf,omitempty"` // defaults to true
}

// SelfFilter reports whether events authored by the bot are skipped.
func (d DispatchConfig) SelfFilter() bool {
	if d.IgnoreSelf == nil {
		return true
	}
	return *d.IgnoreSelf
}

// SessionConfig controls standup session lifetime. A zero TTL keeps
// unanswered sessions until the process exits.
type SessionConfig struct {
	TTL           time.Duration `yaml:"ttl,omitempty"`
	SweepInterval time.Duration `yaml:"sweepInterval,omitempty"`
}

// AdminConfig controls the admin HTTP + WebSocket server.
type AdminConfig struct {
	Enabled        bool     `yaml:"enabled,omitempty"`
	Port           int      `yaml:"port,omitempty"`
	Bind           string   `yaml:"bind,omitempty"` // "loopback" | "lan" | "custom"
	CustomBindHost string   `yaml:"customBindHost,omitempty"`
	Token          string   `yaml:"token,omitempty"`
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty"`
}

// RosterConfig locates the SQLite member roster used by the IRC directory.
type RosterConfig struct {
	Path string `yaml:"path,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	File         string `yaml:"file,omitempty"`
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "json"
}

// HooksConfig maps lifecycle events to shell hooks.
type HooksConfig struct {
	BotStart       []HookEntry `yaml:"botStart,omitempty"`
	BotStop        []HookEntry `yaml:"botStop,omitempty"`
	CommandMatched []HookEntry `yaml:"commandMatched,omitempty"`
	SessionStart   []HookEntry `yaml:"sessionStart,omitempty"`
	SessionEnd     []HookEntry `yaml:"sessionEnd,omitempty"`
	SessionExpired []HookEntry `yaml:"sessionExpired,omitempty"`
}

// HookEntry defines a single hook action.
type HookEntry struct {
	Command string `yaml:"command"`
	Timeout int    `yaml:"timeout,omitempty"` // milliseconds
}
