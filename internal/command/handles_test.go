package command

import (
	"testing"

	"github.com/soyeahso/standupbot/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestPatternLiterals(t *testing.T) {
	assert.Equal(t, `^Standup for:`, startPattern.String())
	assert.Equal(t, `[a-z0-9\.]*@[a-z\.]*`, handlePattern.String())
}

func TestExtractHandles(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"comma separated", "Standup for: alice@co.com, bob@co.com", []string{"alice@co.com", "bob@co.com"}},
		{"dots and digits", "Standup for: j.doe2@mail.co.uk", []string{"j.doe2@mail.co.uk"}},
		{"uppercase truncates", "Standup for: Alice@Co.com", []string{"lice@"}},
		{"digits rejected after at", "Standup for: a@b1.com", []string{"a@b"}},
		{"empty local part", "Standup for: @co.com", []string{"@co.com"}},
		{"duplicates kept", "a@x.io a@x.io", []string{"a@x.io", "a@x.io"}},
		{"none", "Standup for: everyone", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractHandles(tt.text))
		})
	}
}

func TestResolve(t *testing.T) {
	members := team()

	got := resolve(members, []string{"bob@co.com", "carol@co.com", "alice@co.com"})
	assert.Equal(t, []string{"U1", "U2"}, memberIDs(got), "directory order, unknown handles dropped")

	assert.Empty(t, resolve(members, nil))
	assert.Empty(t, resolve(members, []string{""}), "members without email never match")
}

func memberIDs(ms []domain.Member) []string {
	ids := make([]string, len(ms))
	for i, m := range ms {
		ids[i] = m.ID
	}
	return ids
}
