package hooks

import (
	"testing"
	"time"

	"github.com/soyeahso/standupbot/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestSessionData(t *testing.T) {
	created := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	s := domain.Session{
		ID:             "s-1",
		ConversationID: "D1",
		OriginChannel:  "C1",
		AuthorHandle:   "alice@co.com",
		ParticipantID:  "U1",
		CreatedAt:      created,
	}

	data := SessionData(s, ReasonReplied)
	assert.Equal(t, map[string]any{
		"id":           "s-1",
		"conversation": "D1",
		"origin":       "C1",
		"author":       "alice@co.com",
		"participant":  "U1",
		"createdAt":    created,
		"reason":       "replied",
	}, data)

	_, ok := SessionData(s, "")["reason"]
	assert.False(t, ok)
}
