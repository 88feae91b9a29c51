// Package admin serves the operator API: health, outstanding standup
// sessions, and a WebSocket feed of lifecycle events.
package admin

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/soyeahso/standupbot/internal/config"
	"github.com/soyeahso/standupbot/internal/domain"
	"github.com/soyeahso/standupbot/internal/hooks"
	"github.com/soyeahso/standupbot/internal/logging"
)

// Sessions is the view of the session table the admin API needs.
type Sessions interface {
	List() []domain.Session
	Cancel(id string) (domain.Session, bool)
	Len() int
}

// Server is the admin HTTP + WebSocket server.
type Server struct {
	cfg      config.AdminConfig
	platform string
	sessions Sessions
	hooks    *hooks.Manager
	feed     *Feed
	limiter  *failureLimiter
	upgrader websocket.Upgrader
	log      *logging.Logger

	startedAt  time.Time
	httpServer *http.Server
}

// New creates an admin server. It subscribes its feed to every hook event
// when hookMgr is set.
func New(cfg config.AdminConfig, platform string, sessions Sessions, hookMgr *hooks.Manager, log *logging.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		platform: platform,
		sessions: sessions,
		hooks:    hookMgr,
		feed:     NewFeed(log),
		limiter:  newFailureLimiter(),
		log:      log.Sub("admin"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     checkWebSocketOrigin(cfg.AllowedOrigins),
		},
		startedAt: time.Now(),
	}
	if hookMgr != nil {
		hookMgr.OnAll("admin-feed", s.feed.Hook())
	}
	return s
}

// Feed returns the event feed.
func (s *Server) Feed() *Feed { return s.feed }

// checkWebSocketOrigin allows non-browser clients and listed origins.
func checkWebSocketOrigin(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || isOriginAllowed(origin, allowed)
	}
}

func resolveBindAddr(cfg config.AdminConfig) string {
	switch cfg.Bind {
	case "lan":
		return fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	case "custom":
		host := cfg.CustomBindHost
		if host == "" {
			host = "0.0.0.0"
		}
		return net.JoinHostPort(host, fmt.Sprint(cfg.Port))
	default:
		return fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	}
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)
	return withMiddleware(mux, s.log, s.cfg.AllowedOrigins)
}

// Start listens until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	addr := resolveBindAddr(s.cfg)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	if s.cfg.Bind != "" && s.cfg.Bind != "loopback" {
		s.log.Warn().Msg("admin server is reachable beyond loopback without TLS")
	}
	s.log.Info().Str("addr", ln.Addr().String()).Msg("admin server ready")

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.feed.CloseAll()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.log.Warn().Err(err).Msg("admin server shutdown")
		}
	}()

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
