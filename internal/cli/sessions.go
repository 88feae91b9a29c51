package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"text/tabwriter"
	"time"

	"github.com/soyeahso/standupbot/internal/admin"
	"github.com/soyeahso/standupbot/internal/config"
	"github.com/spf13/cobra"
)

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect outstanding standup sessions of a running bot",
		Long:  "Talks to the admin API of a running bot; admin.enabled must be set.",
	}
	cmd.AddCommand(newSessionsListCmd())
	cmd.AddCommand(newSessionsCancelCmd())
	return cmd
}

func adminConfig() (config.AdminConfig, error) {
	cfg, err := config.Load(paths.Config)
	if err != nil {
		return config.AdminConfig{}, err
	}
	if !cfg.Admin.Enabled {
		return config.AdminConfig{}, fmt.Errorf("admin API is disabled (set admin.enabled)")
	}
	return cfg.Admin, nil
}

func newSessionsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List sessions awaiting a reply",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := adminConfig()
			if err != nil {
				return err
			}
			resp, err := adminRequest(cfg, http.MethodGet, "/api/sessions")
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			var list admin.SessionsResponse
			if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
				return fmt.Errorf("decoding sessions: %w", err)
			}
			if len(list.Sessions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No outstanding sessions.")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tPARTICIPANT\tCONVERSATION\tORIGIN\tAGE")
			for _, s := range list.Sessions {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					s.ID, s.AuthorHandle, s.ConversationID, s.OriginChannel,
					time.Since(s.CreatedAt).Round(time.Second))
			}
			return tw.Flush()
		},
	}
}

func newSessionsCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <id>",
		Short: "Drop a session so a late reply is no longer relayed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := adminConfig()
			if err != nil {
				return err
			}
			resp, err := adminRequest(cfg, http.MethodDelete, "/api/sessions/"+args[0])
			if err != nil {
				return err
			}
			resp.Body.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "Cancelled session %s\n", args[0])
			return nil
		},
	}
}
