package admin

import (
	"testing"
	"time"

	"github.com/soyeahso/standupbot/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeed_SlowSubscriberDoesNotBlockMembership(t *testing.T) {
	f := NewFeed(logging.New(nil, "silent"))

	// closed clients never touch conn, so nil conns are safe here
	stuck := &feedClient{id: "stuck", closed: true}
	leaving := &feedClient{id: "leaving", closed: true}
	f.clients[stuck.id] = stuck
	f.clients[leaving.id] = leaving

	stuck.mu.Lock()
	broadcastDone := make(chan struct{})
	go func() {
		f.Broadcast("session_start", map[string]any{"id": "s-1"})
		close(broadcastDone)
	}()
	time.Sleep(20 * time.Millisecond)

	removed := make(chan struct{})
	go func() {
		f.remove(leaving)
		close(removed)
	}()

	select {
	case <-removed:
	case <-time.After(time.Second):
		stuck.mu.Unlock()
		t.Fatal("unsubscribing blocked behind a pending send")
	}
	assert.Equal(t, 1, f.Count())

	stuck.mu.Unlock()
	select {
	case <-broadcastDone:
	case <-time.After(time.Second):
		t.Fatal("broadcast did not finish")
	}
}

func TestFeed_BroadcastSequence(t *testing.T) {
	f := NewFeed(logging.New(nil, "silent"))
	f.Broadcast("bot_start", nil)
	f.Broadcast("bot_stop", nil)
	require.Equal(t, int64(2), f.seq.Load())
}
