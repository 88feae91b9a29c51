package command

import (
	"context"
	"errors"

	"github.com/soyeahso/standupbot/internal/domain"
	"github.com/soyeahso/standupbot/internal/hooks"
)

// startSession prompts every resolved participant privately, records a
// session per prompted conversation, and posts a summary to the source
// channel. A failure for one participant does not stop the others.
func (e *Executor) startSession(ctx context.Context, cmd Command) error {
	handles := ExtractHandles(cmd.Input)

	members, err := e.directory.ListMembers(ctx)
	if err != nil {
		return &GatewayError{Op: "list_members", Err: err}
	}
	participants := resolve(members, handles)

	e.log.Info().
		Str("channel", cmd.Channel).
		Int("handles", len(handles)).
		Int("resolved", len(participants)).
		Msg("starting standup")

	var errs []error
	names := make([]string, 0, len(participants))
	for _, m := range participants {
		names = append(names, m.Email)
		if err := e.promptParticipant(ctx, cmd.Channel, m); err != nil {
			e.log.Error().Err(err).Str("member", m.Email).Msg("failed to prompt participant")
			errs = append(errs, err)
		}
	}

	if err := e.post(ctx, cmd.Channel, SummaryText(names)); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (e *Executor) promptParticipant(ctx context.Context, origin string, m domain.Member) error {
	conv, err := e.messenger.OpenConversation(ctx, m.ID)
	if err != nil {
		return &GatewayError{Op: "open_conversation", Target: m.ID, Err: err}
	}
	if err := e.post(ctx, conv, PromptText); err != nil {
		return err
	}

	stored, previous := e.sessions.Insert(domain.Session{
		ConversationID: conv,
		OriginChannel:  origin,
		AuthorHandle:   m.Email,
		ParticipantID:  m.ID,
	})
	if previous != nil {
		e.log.Warn().
			Str("conversation", conv).
			Str("previousOrigin", previous.OriginChannel).
			Msg("superseded outstanding standup session")
	}
	e.hooks.EmitAsync(ctx, hooks.EventSessionStart, hooks.SessionData(stored, ""))
	return nil
}

// resolve keeps the members whose email is one of handles, in directory
// order. Handles with no matching member are dropped.
func resolve(members []domain.Member, handles []string) []domain.Member {
	wanted := make(map[string]bool, len(handles))
	for _, h := range handles {
		wanted[h] = true
	}
	var out []domain.Member
	for _, m := range members {
		if m.Email != "" && wanted[m.Email] {
			out = append(out, m)
		}
	}
	return out
}
