// Package irc connects standupbot to an IRC network using girc. Private
// conversations are PRIVMSG exchanges with a nick, so a participant's
// conversation id is their nick. Members are resolved from the roster.
package irc

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/lrstanley/girc"

	"github.com/soyeahso/standupbot/internal/config"
	"github.com/soyeahso/standupbot/internal/domain"
	"github.com/soyeahso/standupbot/internal/logging"
	"github.com/soyeahso/standupbot/internal/version"
)

// ErrNotConnected is returned when sending before the client is registered.
var ErrNotConnected = errors.New("irc: not connected")

const (
	maxLineLen     = 400
	reconnectDelay = 5 * time.Second
)

// Platform implements domain.Platform for IRC.
type Platform struct {
	cfg       config.IRCConfig
	directory domain.Directory
	log       *logging.Logger

	mu      sync.Mutex
	client  *girc.Client
	queue   []domain.Event
	closed  bool
	ready   chan struct{}
	readyMu sync.Once
}

var _ domain.Platform = (*Platform)(nil)

// New creates an IRC platform. directory supplies members for standups.
func New(cfg config.IRCConfig, directory domain.Directory, log *logging.Logger) *Platform {
	return &Platform{
		cfg:       cfg,
		directory: directory,
		log:       log.Sub("irc"),
		ready:     make(chan struct{}),
	}
}

func (p *Platform) Name() string { return "irc" }

func (p *Platform) port() int {
	if p.cfg.Port != 0 {
		return p.cfg.Port
	}
	if p.cfg.UseTLS {
		return 6697
	}
	return 6667
}

func (p *Platform) clientConfig() girc.Config {
	cfg := girc.Config{
		Server:  p.cfg.Server,
		Port:    p.port(),
		Nick:    p.cfg.Nick,
		User:    p.cfg.Nick,
		Name:    "standupbot",
		SSL:     p.cfg.UseTLS,
		Version: version.UserAgent(),
	}
	if p.cfg.UseTLS {
		cfg.TLSConfig = &tls.Config{ServerName: p.cfg.Server}
	}
	if p.cfg.SASL && p.cfg.Password != "" {
		cfg.SASL = &girc.SASLPlain{User: p.cfg.Nick, Pass: p.cfg.Password}
	} else if p.cfg.Password != "" {
		cfg.ServerPass = p.cfg.Password
	}
	return cfg
}

// Connect dials the server and waits until registration completes. The
// connection is re-established in the background if it drops later.
func (p *Platform) Connect(ctx context.Context) error {
	client := girc.New(p.clientConfig())
	client.Handlers.Add(girc.CONNECTED, p.onConnected)
	client.Handlers.Add(girc.PRIVMSG, p.onEvent)
	client.Handlers.Add(girc.JOIN, p.onEvent)
	client.Handlers.Add(girc.DISCONNECTED, p.onDisconnected)

	p.mu.Lock()
	p.client = client
	p.mu.Unlock()

	p.log.Info().
		Str("server", p.cfg.Server).
		Int("port", p.port()).
		Str("nick", p.cfg.Nick).
		Strs("channels", p.cfg.Channels).
		Bool("tls", p.cfg.UseTLS).
		Msg("connecting to IRC")

	errCh := make(chan error, 1)
	go func() { errCh <- client.Connect() }()

	select {
	case <-p.ready:
		go p.keepAlive(client, errCh)
		return nil
	case err := <-errCh:
		if err == nil {
			err = errors.New("connection closed during registration")
		}
		return fmt.Errorf("irc connect: %w", err)
	case <-ctx.Done():
		client.Close()
		return ctx.Err()
	}
}

// keepAlive reconnects after the first session ends until Close is called.
func (p *Platform) keepAlive(client *girc.Client, errCh <-chan error) {
	for {
		err := <-errCh
		if p.isClosed() {
			return
		}
		p.log.Warn().Err(err).Dur("retryIn", reconnectDelay).Msg("IRC connection lost")
		time.Sleep(reconnectDelay)
		if p.isClosed() {
			return
		}
		ch := make(chan error, 1)
		go func() { ch <- client.Connect() }()
		errCh = ch
	}
}

func (p *Platform) onConnected(c *girc.Client, _ girc.Event) {
	p.log.Info().Str("nick", c.GetNick()).Msg("connected to IRC")
	for _, ch := range p.cfg.Channels {
		c.Cmd.Join(ch)
	}
	p.readyMu.Do(func() { close(p.ready) })
}

func (p *Platform) onDisconnected(_ *girc.Client, _ girc.Event) {
	p.log.Warn().Msg("disconnected from IRC")
}

func (p *Platform) onEvent(_ *girc.Client, e girc.Event) {
	ev, ok := toEvent(e)
	if !ok {
		return
	}
	p.mu.Lock()
	p.queue = append(p.queue, ev)
	p.mu.Unlock()
}

// toEvent converts channel and private PRIVMSGs, CTCP actions and joins.
func toEvent(e girc.Event) (domain.Event, bool) {
	if e.Source == nil || len(e.Params) == 0 {
		return domain.Event{}, false
	}
	ev := domain.Event{
		Kind:      domain.EventKindMessage,
		User:      e.Source.Name,
		Timestamp: e.Timestamp,
	}

	switch e.Command {
	case girc.JOIN:
		ev.Subtype = domain.SubtypeChannelJoin
		ev.Channel = e.Params[0]
	case girc.PRIVMSG:
		ev.Text = e.Last()
		if e.IsAction() {
			ev.Subtype = domain.SubtypeMeMessage
			ev.Text = e.StripAction()
		}
		if e.IsFromChannel() {
			ev.Channel = e.Params[0]
		} else {
			ev.Channel = nickKey(e.Source.Name)
		}
	default:
		return domain.Event{}, false
	}
	return ev, true
}

// AuthIdentify returns the nick the bot is registered under.
func (p *Platform) AuthIdentify(_ context.Context) (string, error) {
	p.mu.Lock()
	client := p.client
	p.mu.Unlock()
	if client != nil && client.IsConnected() {
		return client.GetNick(), nil
	}
	return p.cfg.Nick, nil
}

// ReceiveEvents drains the events received since the last call.
func (p *Platform) ReceiveEvents(_ context.Context) ([]domain.Event, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client == nil {
		return nil, ErrNotConnected
	}
	events := p.queue
	p.queue = nil
	return events, nil
}

// ListMembers returns the roster members.
func (p *Platform) ListMembers(ctx context.Context) ([]domain.Member, error) {
	return p.directory.ListMembers(ctx)
}

// OpenConversation returns the folded nick: a private conversation is
// addressed by the participant's nick.
func (p *Platform) OpenConversation(_ context.Context, nick string) (string, error) {
	if strings.TrimSpace(nick) == "" || !girc.IsValidNick(nick) {
		return "", fmt.Errorf("irc: invalid nick %q", nick)
	}
	return nickKey(nick), nil
}

// PostMessage sends text to a channel or nick, one PRIVMSG per line.
func (p *Platform) PostMessage(_ context.Context, target, text string) error {
	p.mu.Lock()
	client := p.client
	p.mu.Unlock()
	if client == nil || !client.IsConnected() {
		return ErrNotConnected
	}
	if target == "" {
		return errors.New("irc: no target specified")
	}

	lines := splitMessage(text, maxLineLen)
	for _, line := range lines {
		client.Cmd.Message(target, line)
	}
	p.log.Debug().Str("to", target).Int("lines", len(lines)).Msg("sent IRC message")
	return nil
}

// Close quits the server and stops reconnecting.
func (p *Platform) Close() error {
	p.mu.Lock()
	p.closed = true
	client := p.client
	p.mu.Unlock()

	if client == nil {
		return nil
	}
	if client.IsConnected() {
		client.Quit("standup over")
	}
	client.Close()
	return nil
}

func (p *Platform) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// blankLine stands in for an empty line inside a message, since IRC
// rejects empty PRIVMSGs.
const blankLine = " "

// splitMessage breaks text into PRIVMSG-sized lines. Blank lines between
// paragraphs are sent as blankLine; leading and trailing blank lines are
// dropped. Lines over maxLen are cut on a UTF-8 character boundary.
func splitMessage(text string, maxLen int) []string {
	text = strings.Trim(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var chunks []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			chunks = append(chunks, blankLine)
			continue
		}
		for len(line) > maxLen {
			cut := maxLen
			for cut > 0 && !utf8.RuneStart(line[cut]) {
				cut--
			}
			if cut == 0 {
				cut = maxLen
			}
			chunks = append(chunks, line[:cut])
			line = line[cut:]
		}
		chunks = append(chunks, line)
	}
	return chunks
}

// nickKey folds a nick to its RFC 1459 lowercase form so a conversation
// opened for a roster id matches replies whatever case the server reports.
func nickKey(nick string) string {
	return girc.ToRFC1459(nick)
}
