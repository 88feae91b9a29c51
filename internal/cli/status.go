package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/soyeahso/standupbot/internal/admin"
	"github.com/soyeahso/standupbot/internal/config"
	"github.com/soyeahso/standupbot/internal/version"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration summary and whether a bot is running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "standupbot %s (commit %s)\n\n", version.Version, version.Commit)
			fmt.Fprintf(out, "Config:   %s\n", paths.Config)
			fmt.Fprintf(out, "Data:     %s\n", paths.Data)
			fmt.Fprintln(out)

			cfg, err := config.Load(paths.Config)
			if err != nil {
				fmt.Fprintf(out, "Config:   error loading: %v\n", err)
				return nil
			}

			fmt.Fprintf(out, "Platform: %s\n", cfg.Platform)
			switch {
			case cfg.Platform == "irc" && cfg.IRC != nil:
				fmt.Fprintf(out, "IRC:      server=%s nick=%s channels=%s tls=%v\n",
					cfg.IRC.Server, cfg.IRC.Nick, strings.Join(cfg.IRC.Channels, ","), cfg.IRC.UseTLS)
				fmt.Fprintf(out, "Roster:   %s\n", paths.RosterPath(cfg.Roster))
			case cfg.Platform == "slack" && cfg.Slack != nil:
				fmt.Fprintf(out, "Slack:    bot token %s, app token %s\n", mask(cfg.Slack.BotToken), mask(cfg.Slack.AppToken))
			}
			fmt.Fprintf(out, "Dispatch: poll=%s ignoreSelf=%v\n", cfg.Dispatch.PollInterval, cfg.Dispatch.SelfFilter())
			if cfg.Session.TTL > 0 {
				fmt.Fprintf(out, "Sessions: ttl=%s sweep=%s\n", cfg.Session.TTL, cfg.Session.SweepInterval)
			} else {
				fmt.Fprintln(out, "Sessions: kept until answered")
			}

			if cfg.Admin.Enabled {
				health, err := fetchHealth(cfg.Admin)
				if err != nil {
					fmt.Fprintf(out, "Admin:    not reachable (%v)\n", err)
				} else {
					fmt.Fprintf(out, "Admin:    running %s on %s, uptime %s, %d open session(s)\n",
						health.Version, health.Platform,
						time.Duration(health.UptimeSeconds)*time.Second, health.Sessions)
				}
			}

			if issues := config.Validate(&cfg); len(issues) > 0 {
				fmt.Fprintf(out, "\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Fprintf(out, "  - %s\n", issue)
				}
			}
			return nil
		},
	}
}

func mask(secret string) string {
	if secret == "" {
		return "(unset)"
	}
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "****"
}

func fetchHealth(cfg config.AdminConfig) (admin.HealthResponse, error) {
	var health admin.HealthResponse
	resp, err := adminRequest(cfg, http.MethodGet, "/health")
	if err != nil {
		return health, err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return health, fmt.Errorf("decoding health: %w", err)
	}
	return health, nil
}

// adminRequest calls the local admin API with the configured token.
func adminRequest(cfg config.AdminConfig, method, path string) (*http.Response, error) {
	host := "127.0.0.1"
	if cfg.Bind == "custom" && cfg.CustomBindHost != "" {
		host = cfg.CustomBindHost
	}
	url := fmt.Sprintf("http://%s:%d%s", host, cfg.Port, path)

	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		return nil, err
	}
	if cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.Token)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		resp.Body.Close()
		return nil, fmt.Errorf("%s %s: %s: %s", method, path, resp.Status, strings.TrimSpace(string(body)))
	}
	return resp, nil
}
