package session

import (
	"context"
	"time"

	"github.com/soyeahso/standupbot/internal/domain"
	"github.com/soyeahso/standupbot/internal/logging"
)

// Sweeper retires sessions that have waited longer than a TTL for a reply.
type Sweeper struct {
	table    *Table
	ttl      time.Duration
	interval time.Duration
	onExpire func(domain.Session)
	log      *logging.Logger
}

// NewSweeper creates a sweeper. onExpire, if non-nil, is called for every
// expired session after it has been removed.
func NewSweeper(table *Table, ttl, interval time.Duration, onExpire func(domain.Session), log *logging.Logger) *Sweeper {
	return &Sweeper{
		table:    table,
		ttl:      ttl,
		interval: interval,
		onExpire: onExpire,
		log:      log.Sub("sweeper"),
	}
}

// Run sweeps every interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info().Dur("ttl", s.ttl).Dur("interval", s.interval).Msg("session expiry enabled")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep removes sessions older than the TTL and returns how many it removed.
func (s *Sweeper) Sweep() int {
	expired := s.table.Expire(s.table.now().Add(-s.ttl))
	for _, sess := range expired {
		s.log.Info().
			Str("conversation", sess.ConversationID).
			Str("author", sess.AuthorHandle).
			Str("origin", sess.OriginChannel).
			Msg("standup session expired")
		if s.onExpire != nil {
			s.onExpire(sess)
		}
	}
	return len(expired)
}
