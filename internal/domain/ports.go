package domain

import "context"

// Directory resolves platform members.
type Directory interface {
	// ListMembers returns every member known to the platform.
	ListMembers(ctx context.Context) ([]Member, error)
}

// Messenger opens private conversations and posts text.
type Messenger interface {
	// OpenConversation opens (or reuses) a 1:1 conversation with the user
	// and returns its identifier.
	OpenConversation(ctx context.Context, userID string) (string, error)

	// PostMessage posts text into a channel or conversation.
	PostMessage(ctx context.Context, target, text string) error
}

// Platform is a connected chat platform: the event source plus the
// collaborators commands run against.
type Platform interface {
	Directory
	Messenger

	// Name returns the platform identifier (e.g., "slack", "irc").
	Name() string

	// Connect establishes the real-time event stream. A failure here is fatal.
	Connect(ctx context.Context) error

	// AuthIdentify returns the bot's own user identifier.
	AuthIdentify(ctx context.Context) (string, error)

	// ReceiveEvents returns the events buffered since the last call. An
	// empty batch is a normal outcome.
	ReceiveEvents(ctx context.Context) ([]Event, error)

	// Close disconnects from the platform.
	Close() error
}
