package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/soyeahso/standupbot/internal/config"
	"github.com/soyeahso/standupbot/internal/domain"
	"github.com/soyeahso/standupbot/internal/store"
	"github.com/spf13/cobra"
)

func newRosterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roster",
		Short: "Manage the member roster used on IRC",
		Long: "The roster maps chat identities to email handles. On IRC the member id is\n" +
			"the participant's nick; \"Standup for:\" handles are matched against emails.",
	}
	cmd.AddCommand(newRosterAddCmd())
	cmd.AddCommand(newRosterRemoveCmd())
	cmd.AddCommand(newRosterListCmd())
	cmd.AddCommand(newRosterImportCmd())
	return cmd
}

// withRoster opens the configured roster for the duration of fn.
func withRoster(ctx context.Context, fn func(*store.Roster) error) error {
	cfg, err := config.Load(paths.Config)
	if err != nil {
		return err
	}
	db, err := store.Open(ctx, paths.RosterPath(cfg.Roster), log)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(store.NewRoster(db))
}

func newRosterAddCmd() *cobra.Command {
	var name, email string

	cmd := &cobra.Command{
		Use:   "add <id>",
		Short: "Add or update a member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := domain.Member{ID: args[0], Name: name, Email: email}
			return withRoster(cmd.Context(), func(r *store.Roster) error {
				if err := r.Add(cmd.Context(), m); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s <%s>\n", m.ID, m.Email)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "email handle used in \"Standup for:\" requests")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newRosterRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRoster(cmd.Context(), func(r *store.Roster) error {
				if err := r.Remove(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
				return nil
			})
		},
	}
}

func newRosterListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List members",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRoster(cmd.Context(), func(r *store.Roster) error {
				members, err := r.ListMembers(cmd.Context())
				if err != nil {
					return err
				}
				if len(members) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Roster is empty.")
					return nil
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tEMAIL")
				for _, m := range members {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", m.ID, m.Name, m.Email)
				}
				return tw.Flush()
			})
		},
	}
}

func newRosterImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Import members from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			return withRoster(cmd.Context(), func(r *store.Roster) error {
				n, err := r.Import(cmd.Context(), f)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d member(s)\n", n)
				return nil
			})
		},
	}
}
