package command

import (
	"strings"
	"sync"

	"github.com/soyeahso/standupbot/internal/domain"
)

// SessionLookup reports whether a conversation has an outstanding session.
type SessionLookup interface {
	Has(conversationID string) bool
}

type rule struct {
	kind    Kind
	matches func(m *Matcher, ev domain.Event) bool
}

// rules are evaluated in order; the first match wins.
var rules = []rule{
	{KindHelp, func(_ *Matcher, ev domain.Event) bool {
		return strings.Contains(ev.Text, "help")
	}},
	{KindStartSession, func(_ *Matcher, ev domain.Event) bool {
		return startPattern.MatchString(ev.Text)
	}},
	{KindConsumeReply, func(m *Matcher, ev domain.Event) bool {
		return m.sessions.Has(ev.Channel)
	}},
}

// Matcher selects at most one command for an inbound event. It never
// mutates session state.
type Matcher struct {
	sessions   SessionLookup
	ignoreSelf bool

	mu     sync.RWMutex
	selfID string
}

// NewMatcher creates a matcher reading session membership from sessions.
// When ignoreSelf is set, events authored by the bot are never matched.
func NewMatcher(sessions SessionLookup, ignoreSelf bool) *Matcher {
	return &Matcher{sessions: sessions, ignoreSelf: ignoreSelf}
}

// SetSelf records the bot's own user identifier.
func (m *Matcher) SetSelf(id string) {
	m.mu.Lock()
	m.selfID = id
	m.mu.Unlock()
}

// Match returns the command triggered by ev, or false when the event is
// ineligible or nothing applies.
func (m *Matcher) Match(ev domain.Event) (Command, bool) {
	if !m.eligible(ev) {
		return Command{}, false
	}
	for _, r := range rules {
		if r.matches(m, ev) {
			return Command{Kind: r.kind, Input: ev.Text, Channel: ev.Channel, User: ev.User}, true
		}
	}
	return Command{}, false
}

func (m *Matcher) eligible(ev domain.Event) bool {
	if !ev.IsPlainMessage() {
		return false
	}
	if !m.ignoreSelf {
		return true
	}
	if ev.BotID != "" {
		return false
	}
	m.mu.RLock()
	self := m.selfID
	m.mu.RUnlock()
	return self == "" || ev.User != self
}
