package admin

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/soyeahso/standupbot/internal/hooks"
	"github.com/soyeahso/standupbot/internal/logging"
)

var errClientClosed = errors.New("feed client closed")

const writeTimeout = 5 * time.Second

// Frame is one hook event delivered to feed subscribers.
type Frame struct {
	Type    string         `json:"type"` // always "event"
	Event   string         `json:"event"`
	Seq     int64          `json:"seq"`
	TS      int64          `json:"ts"` // unix millis
	Payload map[string]any `json:"payload,omitempty"`
}

type feedClient struct {
	id          string
	conn        *websocket.Conn
	connectedAt time.Time

	mu     sync.Mutex
	closed bool
}

func (c *feedClient) send(f Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errClientClosed
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(f)
}

func (c *feedClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.conn.Close()
}

// Feed fans hook events out to connected WebSocket subscribers.
type Feed struct {
	mu      sync.RWMutex
	clients map[string]*feedClient
	seq     atomic.Int64
	log     *logging.Logger
}

// NewFeed creates an empty feed.
func NewFeed(log *logging.Logger) *Feed {
	return &Feed{
		clients: make(map[string]*feedClient),
		log:     log.Sub("feed"),
	}
}

func (f *Feed) add(conn *websocket.Conn) *feedClient {
	c := &feedClient{id: uuid.New().String(), conn: conn, connectedAt: time.Now()}
	f.mu.Lock()
	f.clients[c.id] = c
	f.mu.Unlock()
	f.log.Info().Str("connId", c.id).Msg("feed subscriber connected")
	return c
}

func (f *Feed) remove(c *feedClient) {
	f.mu.Lock()
	delete(f.clients, c.id)
	f.mu.Unlock()
	c.close()
	f.log.Info().Str("connId", c.id).Msg("feed subscriber disconnected")
}

// Count returns the number of subscribers.
func (f *Feed) Count() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.clients)
}

// Broadcast sends an event to every subscriber.
func (f *Feed) Broadcast(event string, payload map[string]any) {
	frame := Frame{
		Type:    "event",
		Event:   event,
		Seq:     f.seq.Add(1),
		TS:      time.Now().UnixMilli(),
		Payload: payload,
	}
	for _, c := range f.subscribers() {
		if err := c.send(frame); err != nil {
			f.log.Warn().Err(err).Str("connId", c.id).Msg("feed send failed")
		}
	}
}

// subscribers copies the client set so sends run without holding f.mu.
func (f *Feed) subscribers() []*feedClient {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]*feedClient, 0, len(f.clients))
	for _, c := range f.clients {
		out = append(out, c)
	}
	return out
}

// Hook returns a hook handler that broadcasts every event it receives.
func (f *Feed) Hook() hooks.Handler {
	return func(_ context.Context, p hooks.Payload) error {
		f.Broadcast(p.Event, p.Data)
		return nil
	}
}

// CloseAll disconnects every subscriber.
func (f *Feed) CloseAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, c := range f.clients {
		c.close()
		delete(f.clients, id)
	}
}
