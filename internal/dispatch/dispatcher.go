// Package dispatch runs the event loop that feeds platform events through
// the command matcher.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/soyeahso/standupbot/internal/command"
	"github.com/soyeahso/standupbot/internal/domain"
	"github.com/soyeahso/standupbot/internal/hooks"
	"github.com/soyeahso/standupbot/internal/logging"
)

// Dispatcher polls a platform for events and executes at most one command
// per eligible event, in arrival order.
type Dispatcher struct {
	platform domain.Platform
	matcher  *command.Matcher
	executor *command.Executor
	hooks    *hooks.Manager
	interval time.Duration
	log      *logging.Logger
}

// New creates a dispatcher. hookMgr may be nil.
func New(
	platform domain.Platform,
	matcher *command.Matcher,
	executor *command.Executor,
	hookMgr *hooks.Manager,
	interval time.Duration,
	log *logging.Logger,
) *Dispatcher {
	if interval <= 0 {
		interval = time.Second
	}
	return &Dispatcher{
		platform: platform,
		matcher:  matcher,
		executor: executor,
		hooks:    hookMgr,
		interval: interval,
		log:      log.Sub("dispatch"),
	}
}

// Run connects to the platform and processes events until ctx is cancelled.
// A connection or identity failure at startup is returned immediately.
func (d *Dispatcher) Run(ctx context.Context) error {
	if err := d.platform.Connect(ctx); err != nil {
		return fmt.Errorf("connecting to %s: %w", d.platform.Name(), err)
	}
	self, err := d.platform.AuthIdentify(ctx)
	if err != nil {
		return fmt.Errorf("identifying bot user: %w", err)
	}
	d.matcher.SetSelf(self)

	d.log.Info().Str("platform", d.platform.Name()).Str("self", self).Msg("standup bot connected and ready")
	d.hooks.EmitAsync(ctx, hooks.EventBotStart, map[string]any{"platform": d.platform.Name(), "self": self})
	defer d.hooks.Emit(context.WithoutCancel(ctx), hooks.EventBotStop, map[string]any{"platform": d.platform.Name()})

	for {
		d.Poll(ctx)

		select {
		case <-ctx.Done():
			d.log.Info().Msg("dispatcher stopped")
			return nil
		case <-time.After(d.interval):
		}
	}
}

// Poll reads one batch of events and handles each of them. It returns the
// number of commands executed.
func (d *Dispatcher) Poll(ctx context.Context) int {
	events, err := d.platform.ReceiveEvents(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			d.log.Error().Err(err).Msg("failed to receive events")
		}
		return 0
	}

	n := 0
	for _, ev := range events {
		if d.handle(ctx, ev) {
			n++
		}
	}
	return n
}

func (d *Dispatcher) handle(ctx context.Context, ev domain.Event) bool {
	cmd, ok := d.matcher.Match(ev)
	if !ok {
		return false
	}

	d.log.Debug().
		Str("command", cmd.Kind.String()).
		Str("channel", cmd.Channel).
		Str("user", cmd.User).
		Msg("command matched")
	d.hooks.EmitAsync(ctx, hooks.EventCommandMatched, map[string]any{
		"command": cmd.Kind.String(),
		"channel": cmd.Channel,
		"user":    cmd.User,
	})

	start := time.Now()
	if err := d.execute(ctx, cmd); err != nil {
		d.log.Error().Err(err).
			Str("command", cmd.Kind.String()).
			Str("channel", cmd.Channel).
			Msg("command failed")
		return true
	}
	d.log.Info().
		Str("command", cmd.Kind.String()).
		Str("channel", cmd.Channel).
		Dur("duration", time.Since(start)).
		Msg("command completed")
	return true
}

func (d *Dispatcher) execute(ctx context.Context, cmd command.Command) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("command %s panicked: %v", cmd.Kind, r)
		}
	}()
	return d.executor.Execute(ctx, cmd)
}
