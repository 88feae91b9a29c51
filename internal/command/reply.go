package command

import (
	"context"

	"github.com/soyeahso/standupbot/internal/hooks"
)

// consumeReply retires the session for the source conversation and relays
// the reply to the channel that requested the standup. If another path
// already retired the session, nothing is relayed.
func (e *Executor) consumeReply(ctx context.Context, cmd Command) error {
	s, ok := e.sessions.Consume(cmd.Channel, cmd.Input)
	if !ok {
		e.log.Debug().Str("conversation", cmd.Channel).Msg("session already retired")
		return nil
	}
	e.hooks.EmitAsync(ctx, hooks.EventSessionEnd, hooks.SessionData(s, hooks.ReasonReplied))

	if err := e.post(ctx, s.OriginChannel, RelayText(s.AuthorHandle, cmd.Input)); err != nil {
		return err
	}
	e.log.Info().
		Str("conversation", s.ConversationID).
		Str("origin", s.OriginChannel).
		Str("author", s.AuthorHandle).
		Msg("relayed standup reply")
	return nil
}
