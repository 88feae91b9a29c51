package command

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/soyeahso/standupbot/internal/domain"
	"github.com/soyeahso/standupbot/internal/hooks"
	"github.com/soyeahso/standupbot/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newExecutor(gw *fakeGateway, table *session.Table, hm *hooks.Manager) *Executor {
	return NewExecutor(gw, gw, table, hm, testLogger())
}

func TestHelp_PostsUsageWithoutMutation(t *testing.T) {
	gw := &fakeGateway{members: team()}
	table := session.NewTable()
	table.Insert(domain.Session{ConversationID: "D-U1", OriginChannel: "C1"})
	ex := newExecutor(gw, table, nil)

	err := ex.Execute(context.Background(), Command{Kind: KindHelp, Input: "help", Channel: "C7"})
	require.NoError(t, err)

	assert.Equal(t, []string{HelpText}, gw.postsTo("C7"))
	assert.Equal(t, 1, table.Len())
	assert.Zero(t, gw.listCall)
}

func TestStartSession_Scenario(t *testing.T) {
	gw := &fakeGateway{members: team()}
	table := session.NewTable()
	ex := newExecutor(gw, table, nil)

	err := ex.Execute(context.Background(), Command{
		Kind:    KindStartSession,
		Input:   "Standup for: alice@co.com, bob@co.com, carol@co.com",
		Channel: "C1",
	})
	require.NoError(t, err)

	assert.Equal(t, 2, table.Len())
	for _, conv := range []string{"D-U1", "D-U2"} {
		assert.Equal(t, []string{PromptText}, gw.postsTo(conv))
		s, ok := table.Get(conv)
		require.True(t, ok)
		assert.Equal(t, "C1", s.OriginChannel)
	}
	s, _ := table.Get("D-U2")
	assert.Equal(t, "bob@co.com", s.AuthorHandle)
	assert.Equal(t, "U2", s.ParticipantID)

	assert.Equal(t,
		[]string{"Be right back! Gathering feedback from alice@co.com, bob@co.com"},
		gw.postsTo("C1"))
	assert.Equal(t, 1, gw.listCall)
}

func TestStartSession_NoResolvedMembers(t *testing.T) {
	gw := &fakeGateway{members: team()}
	table := session.NewTable()
	ex := newExecutor(gw, table, nil)

	err := ex.Execute(context.Background(), Command{Kind: KindStartSession, Input: "Standup for: nobody", Channel: "C1"})
	require.NoError(t, err)

	assert.Zero(t, table.Len())
	assert.Equal(t, []string{SummaryText(nil)}, gw.postsTo("C1"))
}

func TestStartSession_DirectoryFailureAborts(t *testing.T) {
	gw := &fakeGateway{listErr: errBoom}
	table := session.NewTable()
	ex := newExecutor(gw, table, nil)

	err := ex.Execute(context.Background(), Command{Kind: KindStartSession, Input: "Standup for: alice@co.com", Channel: "C1"})
	require.Error(t, err)

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, "list_members", gwErr.Op)
	assert.ErrorIs(t, err, errBoom)
	assert.Zero(t, gw.postCount())
	assert.Zero(t, table.Len())
}

func TestStartSession_ParticipantFailuresAreIsolated(t *testing.T) {
	members := append(team(), domain.Member{ID: "U4", Email: "erin@co.com"})
	gw := &fakeGateway{
		members: members,
		openErr: map[string]error{"U1": errBoom},
		postErr: map[string]error{"D-U2": errBoom},
	}
	table := session.NewTable()
	ex := newExecutor(gw, table, nil)

	err := ex.Execute(context.Background(), Command{
		Kind:    KindStartSession,
		Input:   "Standup for: alice@co.com, bob@co.com, erin@co.com",
		Channel: "C1",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "open_conversation U1")
	assert.Contains(t, err.Error(), "post_message D-U2")

	assert.Equal(t, 1, table.Len())
	assert.True(t, table.Has("D-U4"))
	assert.Equal(t,
		[]string{"Be right back! Gathering feedback from alice@co.com, bob@co.com, erin@co.com"},
		gw.postsTo("C1"))
}

func TestStartSession_SupersedesOutstanding(t *testing.T) {
	gw := &fakeGateway{members: team()}
	table := session.NewTable()
	ex := newExecutor(gw, table, nil)
	ctx := context.Background()

	require.NoError(t, ex.Execute(ctx, Command{Kind: KindStartSession, Input: "Standup for: alice@co.com", Channel: "C1"}))
	require.NoError(t, ex.Execute(ctx, Command{Kind: KindStartSession, Input: "Standup for: alice@co.com", Channel: "C2"}))

	assert.Equal(t, 1, table.Len())
	s, ok := table.Get("D-U1")
	require.True(t, ok)
	assert.Equal(t, "C2", s.OriginChannel)
}

func TestConsumeReply_RoundTrip(t *testing.T) {
	gw := &fakeGateway{members: team()}
	table := session.NewTable()
	ex := newExecutor(gw, table, nil)
	m := NewMatcher(table, true)
	ctx := context.Background()

	require.NoError(t, ex.Execute(ctx, Command{Kind: KindStartSession, Input: "Standup for: alice@co.com, bob@co.com", Channel: "C1"}))

	for _, conv := range []string{"D-U2", "D-U1"} {
		cmd, ok := m.Match(msg(conv, "shipping the release"))
		require.True(t, ok)
		require.Equal(t, KindConsumeReply, cmd.Kind)
		require.NoError(t, ex.Execute(ctx, cmd))
	}

	assert.Zero(t, table.Len())
	assert.Equal(t, []string{
		"Be right back! Gathering feedback from alice@co.com, bob@co.com",
		"Here is the standup from bob@co.com\nshipping the release",
		"Here is the standup from alice@co.com\nshipping the release",
	}, gw.postsTo("C1"))

	_, ok := m.Match(msg("D-U1", "one more thing"))
	assert.False(t, ok, "a second reply is not recognized")
}

func TestConsumeReply_AlreadyRetired(t *testing.T) {
	gw := &fakeGateway{}
	table := session.NewTable()
	ex := newExecutor(gw, table, nil)

	err := ex.Execute(context.Background(), Command{Kind: KindConsumeReply, Input: "late", Channel: "D1"})
	require.NoError(t, err)
	assert.Zero(t, gw.postCount())
}

func TestConsumeReply_ConcurrentRelaysOnce(t *testing.T) {
	gw := &fakeGateway{}
	table := session.NewTable()
	table.Insert(domain.Session{ConversationID: "D1", OriginChannel: "C1", AuthorHandle: "alice@co.com"})
	ex := newExecutor(gw, table, nil)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = ex.Execute(context.Background(), Command{Kind: KindConsumeReply, Input: "done", Channel: "D1"})
		}()
	}
	wg.Wait()

	assert.Len(t, gw.postsTo("C1"), 1)
}

func TestConsumeReply_RelayFailure(t *testing.T) {
	gw := &fakeGateway{postErr: map[string]error{"C1": errBoom}}
	table := session.NewTable()
	table.Insert(domain.Session{ConversationID: "D1", OriginChannel: "C1", AuthorHandle: "alice@co.com"})
	ex := newExecutor(gw, table, nil)

	err := ex.Execute(context.Background(), Command{Kind: KindConsumeReply, Input: "done", Channel: "D1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errBoom))
	assert.False(t, table.Has("D1"))
}

func TestExecute_EmitsSessionHooks(t *testing.T) {
	hm := hooks.NewManager(testLogger())
	var started, ended atomic.Int32
	hm.On(hooks.EventSessionStart, "count", func(_ context.Context, p hooks.Payload) error {
		started.Add(1)
		return nil
	})
	hm.On(hooks.EventSessionEnd, "count", func(_ context.Context, p hooks.Payload) error {
		ended.Add(1)
		return nil
	})

	gw := &fakeGateway{members: team()}
	table := session.NewTable()
	ex := newExecutor(gw, table, hm)
	ctx := context.Background()

	require.NoError(t, ex.Execute(ctx, Command{Kind: KindStartSession, Input: "Standup for: alice@co.com, bob@co.com", Channel: "C1"}))
	require.NoError(t, ex.Execute(ctx, Command{Kind: KindConsumeReply, Input: "ok", Channel: "D-U1"}))

	assert.Eventually(t, func() bool {
		return started.Load() == 2 && ended.Load() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestExecute_UnknownKind(t *testing.T) {
	ex := newExecutor(&fakeGateway{}, session.NewTable(), nil)
	assert.Error(t, ex.Execute(context.Background(), Command{}))
}

func TestGatewayError(t *testing.T) {
	err := &GatewayError{Op: "list_members", Err: errBoom}
	assert.Equal(t, "list_members: boom", err.Error())

	err = &GatewayError{Op: "post_message", Target: "C1", Err: errBoom}
	assert.Equal(t, "post_message C1: boom", err.Error())
	assert.ErrorIs(t, err, errBoom)
}
