package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if val, ok := os.LookupEnv(match[2 : len(match)-1]); ok {
			return val
		}
		return match
	})
}

// expandSensitiveFields lets tokens and passwords be written as ${ENV_VAR}.
func expandSensitiveFields(cfg *Config) {
	if cfg.Slack != nil {
		cfg.Slack.BotToken = expandEnvVars(cfg.Slack.BotToken)
		cfg.Slack.AppToken = expandEnvVars(cfg.Slack.AppToken)
	}
	if cfg.IRC != nil {
		cfg.IRC.Password = expandEnvVars(cfg.IRC.Password)
	}
	cfg.Admin.Token = expandEnvVars(cfg.Admin.Token)
}

// Load reads the config file, applies environment overrides, and returns
// a merged Config. Missing files produce defaults only.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	expandSensitiveFields(&cfg)
	return cfg, nil
}

// LoadRaw reads the config file into a generic map for path-based access.
func LoadRaw(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

// SaveRaw writes a generic map back to a YAML config file.
func SaveRaw(path string, raw map[string]any) error {
	data, err := yaml.Marshal(raw)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// applyDefaults fills zero-value fields left empty by the file.
func applyDefaults(cfg *Config) {
	if cfg.Platform == "" {
		cfg.Platform = "slack"
	}
	if cfg.Dispatch.PollInterval == 0 {
		cfg.Dispatch.PollInterval = defaultPollInterval
	}
	if cfg.Session.SweepInterval == 0 {
		cfg.Session.SweepInterval = defaultSweepInterval
	}
	if cfg.Admin.Port == 0 {
		cfg.Admin.Port = defaultAdminPort
	}
	if cfg.Admin.Bind == "" {
		cfg.Admin.Bind = "loopback"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.ConsoleStyle == "" {
		cfg.Logging.ConsoleStyle = "pretty"
	}
}

// applyEnvOverrides reads STANDUPBOT_* and SLACK_* environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("STANDUPBOT_PLATFORM"); v != "" {
		cfg.Platform = strings.ToLower(v)
	}
	if v := os.Getenv("STANDUPBOT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("STANDUPBOT_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Dispatch.PollInterval = d
		}
	}
	if v := os.Getenv("STANDUPBOT_ADMIN_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Admin.Port = port
		}
	}
	if v := os.Getenv("STANDUPBOT_ADMIN_TOKEN"); v != "" {
		cfg.Admin.Token = v
	}

	bot, app := os.Getenv("SLACK_BOT_TOKEN"), os.Getenv("SLACK_APP_TOKEN")
	if bot == "" && app == "" {
		return
	}
	if cfg.Slack == nil {
		cfg.Slack = &SlackConfig{}
	}
	if bot != "" {
		cfg.Slack.BotToken = bot
	}
	if app != "" {
		cfg.Slack.AppToken = app
	}
}
