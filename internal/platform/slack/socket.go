package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/soyeahso/standupbot/internal/domain"
	"github.com/soyeahso/standupbot/internal/logging"
)

// Socket Mode envelope types.
const (
	envelopeHello      = "hello"
	envelopeEventsAPI  = "events_api"
	envelopeDisconnect = "disconnect"
)

type envelope struct {
	EnvelopeID string          `json:"envelope_id,omitempty"`
	Type       string          `json:"type"`
	Reason     string          `json:"reason,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

type eventsAPIPayload struct {
	Event messageEvent `json:"event"`
}

type messageEvent struct {
	Type    string `json:"type"`
	Subtype string `json:"subtype,omitempty"`
	Text    string `json:"text"`
	Channel string `json:"channel"`
	User    string `json:"user,omitempty"`
	BotID   string `json:"bot_id,omitempty"`
	TS      string `json:"ts,omitempty"`
}

func (m messageEvent) toDomain() domain.Event {
	return domain.Event{
		Kind:      m.Type,
		Subtype:   m.Subtype,
		Text:      m.Text,
		Channel:   m.Channel,
		User:      m.User,
		BotID:     m.BotID,
		Timestamp: parseTS(m.TS),
	}
}

// parseTS converts a Slack "seconds.micros" timestamp.
func parseTS(ts string) time.Time {
	f, err := strconv.ParseFloat(ts, 64)
	if err != nil || f <= 0 {
		return time.Time{}
	}
	sec := int64(f)
	return time.Unix(sec, int64((f-float64(sec))*1e9)).UTC()
}

type ack struct {
	EnvelopeID string `json:"envelope_id"`
}

// socketClient maintains a Socket Mode connection and buffers the events
// it receives until they are drained.
type socketClient struct {
	open   func(ctx context.Context) (string, error) // returns a wss URL
	dialer *websocket.Dialer
	log    *logging.Logger

	reconnectDelay time.Duration

	mu     sync.Mutex
	conn   *websocket.Conn
	queue  []domain.Event
	closed bool
	done   chan struct{}
}

func newSocketClient(open func(ctx context.Context) (string, error), log *logging.Logger) *socketClient {
	return &socketClient{
		open:           open,
		dialer:         websocket.DefaultDialer,
		log:            log,
		reconnectDelay: 2 * time.Second,
		done:           make(chan struct{}),
	}
}

// start dials the first connection and runs the read loop in the
// background until ctx is cancelled or close is called.
func (s *socketClient) start(ctx context.Context) error {
	conn, err := s.dial(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	go s.run(ctx, conn)
	return nil
}

func (s *socketClient) dial(ctx context.Context) (*websocket.Conn, error) {
	wsURL, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	conn, _, err := s.dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing socket mode: %w", err)
	}
	return conn, nil
}

func (s *socketClient) run(ctx context.Context, conn *websocket.Conn) {
	defer close(s.done)
	for {
		err := s.readLoop(conn)
		conn.Close()
		if s.isClosed() || ctx.Err() != nil {
			return
		}
		if err != nil {
			s.log.Warn().Err(err).Msg("socket mode connection lost, reconnecting")
		}

		conn = s.redial(ctx)
		if conn == nil {
			return
		}
	}
}

// redial retries until a connection is established or the client stops.
func (s *socketClient) redial(ctx context.Context) *websocket.Conn {
	for {
		conn, err := s.dial(ctx)
		if err == nil {
			s.mu.Lock()
			if s.closed {
				s.mu.Unlock()
				conn.Close()
				return nil
			}
			s.conn = conn
			s.mu.Unlock()
			s.log.Info().Msg("socket mode reconnected")
			return conn
		}
		s.log.Error().Err(err).Msg("socket mode reconnect failed")

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.reconnectDelay):
		}
		if s.isClosed() {
			return nil
		}
	}
}

// readLoop handles envelopes until the connection fails or the server asks
// for a reconnect, in which case it returns nil.
func (s *socketClient) readLoop(conn *websocket.Conn) error {
	for {
		var env envelope
		if err := conn.ReadJSON(&env); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return err
		}

		if env.EnvelopeID != "" {
			if err := s.write(conn, ack{EnvelopeID: env.EnvelopeID}); err != nil {
				return fmt.Errorf("acking envelope: %w", err)
			}
		}

		switch env.Type {
		case envelopeHello:
			s.log.Debug().Msg("socket mode hello")
		case envelopeDisconnect:
			s.log.Info().Str("reason", env.Reason).Msg("socket mode disconnect requested")
			return nil
		case envelopeEventsAPI:
			var p eventsAPIPayload
			if err := json.Unmarshal(env.Payload, &p); err != nil {
				s.log.Warn().Err(err).Msg("malformed events_api payload")
				continue
			}
			s.push(p.Event.toDomain())
		default:
			s.log.Debug().Str("type", env.Type).Msg("ignoring envelope")
		}
	}
}

func (s *socketClient) write(conn *websocket.Conn, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return conn.WriteJSON(v)
}

func (s *socketClient) push(ev domain.Event) {
	s.mu.Lock()
	s.queue = append(s.queue, ev)
	s.mu.Unlock()
}

// drain returns and clears the buffered events.
func (s *socketClient) drain() []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := s.queue
	s.queue = nil
	return events
}

func (s *socketClient) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *socketClient) close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	conn := s.conn
	if conn != nil {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}
	s.mu.Unlock()

	if conn != nil {
		conn.Close()
		<-s.done
	}
	return nil
}
