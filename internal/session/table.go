// Package session holds the table of outstanding standup sessions.
package session

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/soyeahso/standupbot/internal/domain"
)

// Table maps a private conversation to the standup session awaiting a reply
// in it. All operations are serialized by a single mutex; Consume removes
// and reads an entry in one critical section so a reply is relayed at most
// once.
type Table struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session // conversation id → session
	now      func() time.Time
}

// NewTable creates an empty session table.
func NewTable() *Table {
	return &Table{
		sessions: make(map[string]*domain.Session),
		now:      time.Now,
	}
}

// Insert stores a session under its conversation id, assigning an ID and
// creation time when unset. An existing session for the same conversation
// is superseded and returned.
func (t *Table) Insert(s domain.Session) (stored domain.Session, previous *domain.Session) {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if s.CreatedAt.IsZero() {
		s.CreatedAt = t.now()
	}
	if old, ok := t.sessions[s.ConversationID]; ok {
		prev := clone(old)
		previous = &prev
	}
	t.sessions[s.ConversationID] = &s
	return clone(&s), previous
}

// Has reports whether a session is outstanding for the conversation.
func (t *Table) Has(conversationID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.sessions[conversationID]
	return ok
}

// Get returns a copy of the session for the conversation.
func (t *Table) Get(conversationID string) (domain.Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[conversationID]
	if !ok {
		return domain.Session{}, false
	}
	return clone(s), true
}

// Consume removes the session for the conversation and returns it with the
// reply appended to its responses. Only one caller can observe a given
// session; later callers get false.
func (t *Table) Consume(conversationID, reply string) (domain.Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[conversationID]
	if !ok {
		return domain.Session{}, false
	}
	delete(t.sessions, conversationID)

	out := clone(s)
	out.Responses = append(out.Responses, reply)
	return out, true
}

// Cancel removes a session by its session ID.
func (t *Table) Cancel(id string) (domain.Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for conv, s := range t.sessions {
		if s.ID == id {
			delete(t.sessions, conv)
			return clone(s), true
		}
	}
	return domain.Session{}, false
}

// Expire removes and returns every session created before the cutoff.
func (t *Table) Expire(cutoff time.Time) []domain.Session {
	t.mu.Lock()
	defer t.mu.Unlock()

	var expired []domain.Session
	for conv, s := range t.sessions {
		if s.CreatedAt.Before(cutoff) {
			expired = append(expired, clone(s))
			delete(t.sessions, conv)
		}
	}
	sortByCreated(expired)
	return expired
}

// List returns copies of all outstanding sessions, oldest first.
func (t *Table) List() []domain.Session {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]domain.Session, 0, len(t.sessions))
	for _, s := range t.sessions {
		out = append(out, clone(s))
	}
	sortByCreated(out)
	return out
}

// Len returns the number of outstanding sessions.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

func clone(s *domain.Session) domain.Session {
	out := *s
	out.Responses = slices.Clone(s.Responses)
	return out
}

func sortByCreated(sessions []domain.Session) {
	slices.SortFunc(sessions, func(a, b domain.Session) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ConversationID, b.ConversationID)
	})
}
