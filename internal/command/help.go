package command

import "context"

func (e *Executor) help(ctx context.Context, cmd Command) error {
	e.log.Debug().Str("channel", cmd.Channel).Msg("posting help")
	return e.post(ctx, cmd.Channel, HelpText)
}
