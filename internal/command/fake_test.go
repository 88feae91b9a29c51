package command

import (
	"context"
	"errors"
	"sync"

	"github.com/soyeahso/standupbot/internal/domain"
	"github.com/soyeahso/standupbot/internal/logging"
)

type post struct {
	Target string
	Text   string
}

// fakeGateway is an in-memory directory and messenger.
type fakeGateway struct {
	mu       sync.Mutex
	members  []domain.Member
	listErr  error
	openErr  map[string]error // by user id
	postErr  map[string]error // by target
	posts    []post
	listCall int
}

func (f *fakeGateway) ListMembers(_ context.Context) ([]domain.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCall++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.members, nil
}

func (f *fakeGateway) OpenConversation(_ context.Context, userID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.openErr[userID]; err != nil {
		return "", err
	}
	return "D-" + userID, nil
}

func (f *fakeGateway) PostMessage(_ context.Context, target, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.postErr[target]; err != nil {
		return err
	}
	f.posts = append(f.posts, post{Target: target, Text: text})
	return nil
}

func (f *fakeGateway) postsTo(target string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, p := range f.posts {
		if p.Target == target {
			out = append(out, p.Text)
		}
	}
	return out
}

func (f *fakeGateway) postCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.posts)
}

var errBoom = errors.New("boom")

func testLogger() *logging.Logger {
	return logging.New(nil, "silent")
}

func team() []domain.Member {
	return []domain.Member{
		{ID: "U1", Name: "alice", Email: "alice@co.com"},
		{ID: "U2", Name: "bob", Email: "bob@co.com"},
		{ID: "U3", Name: "dave"},
	}
}
