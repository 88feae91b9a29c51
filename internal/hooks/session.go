package hooks

import "github.com/soyeahso/standupbot/internal/domain"

// Reasons a session leaves the table, reported as "reason" on
// session_end and session_expired.
const (
	ReasonReplied   = "replied"
	ReasonCancelled = "cancelled"
	ReasonExpired   = "expired"
)

// SessionData builds the payload for session events. reason is omitted
// when empty.
func SessionData(s domain.Session, reason string) map[string]any {
	data := map[string]any{
		"id":           s.ID,
		"conversation": s.ConversationID,
		"origin":       s.OriginChannel,
		"author":       s.AuthorHandle,
		"participant":  s.ParticipantID,
		"createdAt":    s.CreatedAt,
	}
	if reason != "" {
		data["reason"] = reason
	}
	return data
}
