package command

import (
	"context"
	"fmt"

	"github.com/soyeahso/standupbot/internal/domain"
	"github.com/soyeahso/standupbot/internal/hooks"
	"github.com/soyeahso/standupbot/internal/logging"
	"github.com/soyeahso/standupbot/internal/session"
)

type handlerFunc func(ctx context.Context, cmd Command) error

// Executor runs matched commands against the platform collaborators and
// the session table.
type Executor struct {
	directory domain.Directory
	messenger domain.Messenger
	sessions  *session.Table
	hooks     *hooks.Manager
	handlers  map[Kind]handlerFunc
	log       *logging.Logger
}

// NewExecutor creates an executor. hooks may be nil.
func NewExecutor(
	directory domain.Directory,
	messenger domain.Messenger,
	sessions *session.Table,
	hookMgr *hooks.Manager,
	log *logging.Logger,
) *Executor {
	e := &Executor{
		directory: directory,
		messenger: messenger,
		sessions:  sessions,
		hooks:     hookMgr,
		log:       log.Sub("command"),
	}
	e.handlers = map[Kind]handlerFunc{
		KindHelp:         e.help,
		KindStartSession: e.startSession,
		KindConsumeReply: e.consumeReply,
	}
	return e
}

// Execute runs cmd to completion.
func (e *Executor) Execute(ctx context.Context, cmd Command) error {
	h, ok := e.handlers[cmd.Kind]
	if !ok {
		return fmt.Errorf("unknown command kind %d", cmd.Kind)
	}
	return h(ctx, cmd)
}

func (e *Executor) post(ctx context.Context, target, text string) error {
	if err := e.messenger.PostMessage(ctx, target, text); err != nil {
		return &GatewayError{Op: "post_message", Target: target, Err: err}
	}
	return nil
}
