package domain

import "time"

// Session is an outstanding standup request directed at one participant.
// It lives in the session table keyed by ConversationID until the
// participant replies, it expires, or it is cancelled.
type Session struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	OriginChannel  string    `json:"originChannel"`
	AuthorHandle   string    `json:"authorHandle"`
	ParticipantID  string    `json:"participantId,omitempty"`
	Responses      []string  `json:"responses,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}
