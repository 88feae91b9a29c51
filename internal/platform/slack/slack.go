// Package slack connects standupbot to Slack: events arrive over Socket
// Mode and every action goes through the Web API.
package slack

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/soyeahso/standupbot/internal/config"
	"github.com/soyeahso/standupbot/internal/domain"
	"github.com/soyeahso/standupbot/internal/logging"
)

// ErrNotConnected is returned when events are requested before Connect.
var ErrNotConnected = errors.New("slack: not connected")

const usersPageSize = "200"

// Platform implements domain.Platform for Slack.
type Platform struct {
	botToken string
	appToken string
	web      *webClient
	log      *logging.Logger

	mu     sync.Mutex
	socket *socketClient
	cancel context.CancelFunc
}

var _ domain.Platform = (*Platform)(nil)

// New creates a Slack platform from cfg.
func New(cfg config.SlackConfig, log *logging.Logger) *Platform {
	return &Platform{
		botToken: cfg.BotToken,
		appToken: cfg.AppToken,
		web:      newWebClient(cfg.APIURL),
		log:      log.Sub("slack"),
	}
}

func (p *Platform) Name() string { return "slack" }

// Connect opens the Socket Mode stream. The connection is kept alive in
// the background, reconnecting whenever Slack drops it.
func (p *Platform) Connect(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.socket != nil {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	socket := newSocketClient(p.openConnection, p.log)
	if err := socket.start(runCtx); err != nil {
		cancel()
		return err
	}

	p.socket = socket
	p.cancel = cancel
	p.log.Info().Msg("socket mode connected")
	return nil
}

// openConnection asks Slack for a fresh Socket Mode URL.
func (p *Platform) openConnection(ctx context.Context) (string, error) {
	var resp connectionsOpenResponse
	if err := p.web.call(ctx, p.appToken, "apps.connections.open", url.Values{}, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}

// AuthIdentify returns the bot's own user id.
func (p *Platform) AuthIdentify(ctx context.Context) (string, error) {
	var resp authTestResponse
	if err := p.web.call(ctx, p.botToken, "auth.test", url.Values{}, &resp); err != nil {
		return "", err
	}
	return resp.UserID, nil
}

// ReceiveEvents drains the events received since the last call.
func (p *Platform) ReceiveEvents(_ context.Context) ([]domain.Event, error) {
	p.mu.Lock()
	socket := p.socket
	p.mu.Unlock()
	if socket == nil {
		return nil, ErrNotConnected
	}
	return socket.drain(), nil
}

// ListMembers pages through users.list.
func (p *Platform) ListMembers(ctx context.Context) ([]domain.Member, error) {
	var members []domain.Member
	cursor := ""
	for {
		params := url.Values{"limit": {usersPageSize}}
		if cursor != "" {
			params.Set("cursor", cursor)
		}

		var resp usersListResponse
		if err := p.web.call(ctx, p.botToken, "users.list", params, &resp); err != nil {
			return nil, err
		}
		for _, m := range resp.Members {
			members = append(members, domain.Member{ID: m.ID, Name: m.Name, Email: m.Profile.Email})
		}

		cursor = resp.Metadata.NextCursor
		if cursor == "" {
			return members, nil
		}
	}
}

// OpenConversation opens a direct message with userID.
func (p *Platform) OpenConversation(ctx context.Context, userID string) (string, error) {
	var resp conversationsOpenResponse
	if err := p.web.call(ctx, p.botToken, "conversations.open", url.Values{"users": {userID}}, &resp); err != nil {
		return "", err
	}
	if resp.Channel.ID == "" {
		return "", fmt.Errorf("slack conversations.open: no channel returned for %s", userID)
	}
	return resp.Channel.ID, nil
}

// PostMessage posts text to a channel or conversation.
func (p *Platform) PostMessage(ctx context.Context, target, text string) error {
	var resp apiResponse
	return p.web.call(ctx, p.botToken, "chat.postMessage", url.Values{
		"channel": {target},
		"text":    {text},
	}, &resp)
}

// Close stops the Socket Mode connection.
func (p *Platform) Close() error {
	p.mu.Lock()
	socket, cancel := p.socket, p.cancel
	p.socket, p.cancel = nil, nil
	p.mu.Unlock()

	if socket == nil {
		return nil
	}
	err := socket.close()
	cancel()
	p.log.Info().Msg("socket mode closed")
	return err
}
