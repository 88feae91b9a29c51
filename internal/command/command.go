// Package command recognizes standup commands in inbound events and
// executes them against the platform and the session table.
package command

// Kind identifies which command an event triggered.
type Kind int

const (
	KindHelp Kind = iota + 1
	KindStartSession
	KindConsumeReply
)

func (k Kind) String() string {
	switch k {
	case KindHelp:
		return "help"
	case KindStartSession:
		return "start_session"
	case KindConsumeReply:
		return "consume_reply"
	default:
		return "unknown"
	}
}

// Command is a recognized command bound to the event that triggered it.
type Command struct {
	Kind    Kind
	Input   string // full text of the triggering event
	Channel string // channel the event arrived on
	User    string
}
