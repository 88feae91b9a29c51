package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/soyeahso/standupbot/internal/admin"
	"github.com/soyeahso/standupbot/internal/command"
	"github.com/soyeahso/standupbot/internal/config"
	"github.com/soyeahso/standupbot/internal/dispatch"
	"github.com/soyeahso/standupbot/internal/domain"
	"github.com/soyeahso/standupbot/internal/hooks"
	"github.com/soyeahso/standupbot/internal/logging"
	"github.com/soyeahso/standupbot/internal/platform/irc"
	"github.com/soyeahso/standupbot/internal/platform/slack"
	"github.com/soyeahso/standupbot/internal/session"
	"github.com/soyeahso/standupbot/internal/store"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var platformName string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Connect to the chat platform and start collecting standups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}
			if platformName != "" {
				cfg.Platform = platformName
			}
			if logLevel != "" {
				cfg.Logging.Level = logLevel
			}

			if issues := config.Validate(&cfg); len(issues) > 0 {
				for _, issue := range issues {
					log.Error().Str("path", issue.Path).Msg(issue.Message)
				}
				return fmt.Errorf("config validation failed with %d issue(s)", len(issues))
			}
			if err := paths.EnsureDirs(); err != nil {
				return fmt.Errorf("creating data directories: %w", err)
			}

			runLog, closer, err := logging.Open(logging.Options{
				Level: cfg.Logging.Level,
				Style: cfg.Logging.ConsoleStyle,
				File:  cfg.Logging.File,
			})
			if err != nil {
				return err
			}
			defer closer.Close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runBot(ctx, cfg, runLog)
		},
	}

	cmd.Flags().StringVar(&platformName, "platform", "", "override the configured platform (slack, irc)")
	return cmd
}

// runBot opens the configured platform and serves it until ctx is
// cancelled or the dispatcher fails.
func runBot(ctx context.Context, cfg config.Config, log *logging.Logger) error {
	platform, cleanup, err := openPlatform(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()
	return serveBot(ctx, cfg, platform, log)
}

// serveBot wires the session table, dispatcher, sweeper, hooks and admin
// server around an opened platform.
func serveBot(ctx context.Context, cfg config.Config, platform domain.Platform, log *logging.Logger) error {
	hookMgr := hooks.NewManager(log)
	if n := hookMgr.RegisterCommands(cfg.Hooks); n > 0 {
		log.Info().Int("hooks", n).Msg("shell hooks registered")
	}

	table := session.NewTable()
	matcher := command.NewMatcher(table, cfg.Dispatch.SelfFilter())
	executor := command.NewExecutor(platform, platform, table, hookMgr, log)
	dispatcher := dispatch.New(platform, matcher, executor, hookMgr, cfg.Dispatch.PollInterval, log)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.Session.TTL > 0 {
		sweeper := session.NewSweeper(table, cfg.Session.TTL, cfg.Session.SweepInterval,
			func(s domain.Session) {
				hookMgr.EmitAsync(ctx, hooks.EventSessionExpired, hooks.SessionData(s, hooks.ReasonExpired))
			}, log)
		go sweeper.Run(ctx)
	}

	adminErr := make(chan error, 1)
	if cfg.Admin.Enabled {
		srv := admin.New(cfg.Admin, platform.Name(), table, hookMgr, log)
		go func() { adminErr <- srv.Start(ctx) }()
	}

	runErr := make(chan error, 1)
	go func() { runErr <- dispatcher.Run(ctx) }()

	select {
	case err := <-runErr:
		cancel()
		return err
	case err := <-adminErr:
		cancel()
		<-runErr
		if err != nil {
			return fmt.Errorf("admin server: %w", err)
		}
		return nil
	}
}

// openPlatform builds the configured platform. The cleanup func closes the
// platform and any store it opened.
func openPlatform(ctx context.Context, cfg config.Config, log *logging.Logger) (domain.Platform, func(), error) {
	switch cfg.Platform {
	case "slack":
		if cfg.Slack == nil {
			return nil, nil, errors.New("slack platform selected but slack is not configured")
		}
		p := slack.New(*cfg.Slack, log)
		return p, func() { p.Close() }, nil

	case "irc":
		if cfg.IRC == nil {
			return nil, nil, errors.New("irc platform selected but irc is not configured")
		}
		db, err := store.Open(ctx, paths.RosterPath(cfg.Roster), log)
		if err != nil {
			return nil, nil, fmt.Errorf("opening roster: %w", err)
		}
		p := irc.New(*cfg.IRC, store.NewRoster(db), log)
		return p, func() {
			p.Close()
			db.Close()
		}, nil

	default:
		return nil, nil, fmt.Errorf("unknown platform %q", cfg.Platform)
	}
}
