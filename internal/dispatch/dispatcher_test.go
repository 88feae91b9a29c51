package dispatch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/soyeahso/standupbot/internal/command"
	"github.com/soyeahso/standupbot/internal/domain"
	"github.com/soyeahso/standupbot/internal/hooks"
	"github.com/soyeahso/standupbot/internal/logging"
	"github.com/soyeahso/standupbot/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logging.Logger {
	return logging.New(nil, "silent")
}

// mockPlatform is a test double for domain.Platform.
type mockPlatform struct {
	mu          sync.Mutex
	batches     [][]domain.Event
	receiveErr  error
	connectErr  error
	members     []domain.Member
	panicOnList bool
	posts       map[string][]string
	connected   bool
}

func (m *mockPlatform) Name() string { return "mock" }
func (m *mockPlatform) Connect(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = true
	return m.connectErr
}
func (m *mockPlatform) AuthIdentify(_ context.Context) (string, error) { return "UBOT", nil }
func (m *mockPlatform) Close() error                                    { return nil }

func (m *mockPlatform) ReceiveEvents(_ context.Context) ([]domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.receiveErr != nil {
		return nil, m.receiveErr
	}
	if len(m.batches) == 0 {
		return nil, nil
	}
	batch := m.batches[0]
	m.batches = m.batches[1:]
	return batch, nil
}

func (m *mockPlatform) push(events ...domain.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, events)
}

func (m *mockPlatform) ListMembers(_ context.Context) ([]domain.Member, error) {
	if m.panicOnList {
		panic("directory exploded")
	}
	return m.members, nil
}

func (m *mockPlatform) OpenConversation(_ context.Context, userID string) (string, error) {
	return "D-" + userID, nil
}

func (m *mockPlatform) PostMessage(_ context.Context, target, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.posts == nil {
		m.posts = make(map[string][]string)
	}
	m.posts[target] = append(m.posts[target], text)
	return nil
}

func (m *mockPlatform) postsTo(target string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.posts[target]...)
}

func message(channel, user, text string) domain.Event {
	return domain.Event{Kind: domain.EventKindMessage, Channel: channel, User: user, Text: text}
}

func newDispatcher(p *mockPlatform, table *session.Table, hm *hooks.Manager) *Dispatcher {
	log := testLogger()
	m := command.NewMatcher(table, true)
	m.SetSelf("UBOT")
	ex := command.NewExecutor(p, p, table, hm, log)
	return New(p, m, ex, hm, 10*time.Millisecond, log)
}

func TestPoll_OneCommandPerEligibleEvent(t *testing.T) {
	p := &mockPlatform{members: []domain.Member{{ID: "U1", Email: "alice@co.com"}}}
	table := session.NewTable()
	d := newDispatcher(p, table, nil)

	p.push(
		message("C1", "U5", "help"),
		domain.Event{Kind: domain.EventKindMessage, Subtype: domain.SubtypeChannelJoin, Channel: "C1", Text: "help"},
		message("C1", "U5", "good morning"),
		message("C1", "U5", "Standup for: alice@co.com"),
	)

	n := d.Poll(context.Background())
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{
		command.HelpText,
		"Be right back! Gathering feedback from alice@co.com",
	}, p.postsTo("C1"))
	assert.True(t, table.Has("D-U1"))
}

func TestPoll_ReplyInSameBatchAsStart(t *testing.T) {
	p := &mockPlatform{members: []domain.Member{{ID: "U1", Email: "alice@co.com"}}}
	table := session.NewTable()
	d := newDispatcher(p, table, nil)

	p.push(
		message("C1", "U5", "Standup for: alice@co.com"),
		message("D-U1", "U1", "fixing bugs"),
	)

	assert.Equal(t, 2, d.Poll(context.Background()))
	assert.Contains(t, p.postsTo("C1"), "Here is the standup from alice@co.com\nfixing bugs")
	assert.Zero(t, table.Len())
}

func TestPoll_SkipsOwnMessages(t *testing.T) {
	p := &mockPlatform{}
	table := session.NewTable()
	table.Insert(domain.Session{ConversationID: "D1", OriginChannel: "C1"})
	d := newDispatcher(p, table, nil)

	p.push(message("D1", "UBOT", command.PromptText))

	assert.Zero(t, d.Poll(context.Background()))
	assert.True(t, table.Has("D1"))
}

func TestPoll_PanicIsIsolated(t *testing.T) {
	p := &mockPlatform{panicOnList: true}
	d := newDispatcher(p, session.NewTable(), nil)

	p.push(
		message("C1", "U5", "Standup for: alice@co.com"),
		message("C2", "U5", "help"),
	)

	assert.Equal(t, 2, d.Poll(context.Background()))
	assert.Equal(t, []string{command.HelpText}, p.postsTo("C2"))
}

func TestPoll_ReceiveError(t *testing.T) {
	p := &mockPlatform{receiveErr: errors.New("socket closed")}
	d := newDispatcher(p, session.NewTable(), nil)

	assert.Zero(t, d.Poll(context.Background()))
}

func TestPoll_EmitsCommandMatched(t *testing.T) {
	hm := hooks.NewManager(testLogger())
	var got atomic.Value
	hm.On(hooks.EventCommandMatched, "test", func(_ context.Context, p hooks.Payload) error {
		got.Store(p.Data["command"])
		return nil
	})

	p := &mockPlatform{}
	d := newDispatcher(p, session.NewTable(), hm)
	p.push(message("C1", "U5", "help"))
	d.Poll(context.Background())

	assert.Eventually(t, func() bool {
		return got.Load() == "help"
	}, time.Second, 10*time.Millisecond)
}

func TestRun_ConnectFailureIsFatal(t *testing.T) {
	p := &mockPlatform{connectErr: errors.New("invalid_auth")}
	d := newDispatcher(p, session.NewTable(), nil)

	err := d.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_auth")
}

func TestRun_ProcessesUntilCancelled(t *testing.T) {
	hm := hooks.NewManager(testLogger())
	var stopped atomic.Bool
	hm.On(hooks.EventBotStop, "test", func(_ context.Context, _ hooks.Payload) error {
		stopped.Store(true)
		return nil
	})

	p := &mockPlatform{}
	d := newDispatcher(p, session.NewTable(), hm)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	p.push(message("C1", "U5", "help"))
	assert.Eventually(t, func() bool {
		return len(p.postsTo("C1")) == 1
	}, 2*time.Second, 10*time.Millisecond)

	p.push(message("C1", "U5", "help again"))
	assert.Eventually(t, func() bool {
		return len(p.postsTo("C1")) == 2
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not stop")
	}
	assert.True(t, stopped.Load())
}
