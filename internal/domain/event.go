// Package domain defines the types shared by the standup engine and the
// chat platform adapters.
package domain

import "time"

// EventKindMessage is the only event kind eligible for command recognition.
const EventKindMessage = "message"

// Subtypes emitted by the adapters for non-chat message events.
const (
	SubtypeChannelJoin = "channel_join"
	SubtypeMeMessage   = "me_message"
	SubtypeBotMessage  = "bot_message"
	SubtypeEdited      = "message_changed"
)

// Event is an inbound record from the platform's real-time stream.
type Event struct {
	Kind      string    `json:"kind"`
	Subtype   string    `json:"subtype,omitempty"`
	Text      string    `json:"text"`
	Channel   string    `json:"channel"`
	User      string    `json:"user,omitempty"`
	BotID     string    `json:"botId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// IsPlainMessage reports whether the event is a message without a subtype
// marker. Edits, joins and other subtype-bearing events are never eligible.
func (e Event) IsPlainMessage() bool {
	return e.Kind == EventKindMessage && e.Subtype == ""
}

// Member is a directory entry for a platform user.
type Member struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}
