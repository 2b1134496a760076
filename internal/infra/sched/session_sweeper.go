package sched

import (
	"context"
	"time"

	"foodflow-pickup/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// IdleSessionStore discards sessions untouched since cutoff and reports how
// many went. Len is the number still held.
type IdleSessionStore interface {
	SweepIdle(cutoff time.Time) int
	Len() int
}

// SessionSweeper periodically drops abandoned confirmation sessions.
type SessionSweeper struct {
	interval time.Duration
	ttl      time.Duration
	store    IdleSessionStore
	now      func() time.Time
	log      *zerolog.Logger
}

func NewSessionSweeper(interval, ttl time.Duration, store IdleSessionStore, logger *zerolog.Logger) *SessionSweeper {
	sweepLog := logger.With().Str("component", "SessionSweeper").Logger()
	if interval <= 0 {
		interval = time.Minute
	}
	return &SessionSweeper{
		interval: interval,
		ttl:      ttl,
		store:    store,
		now:      time.Now,
		log:      &sweepLog,
	}
}

func (w *SessionSweeper) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Dur("ttl", w.ttl).Msg("Starting session sweeper")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping session sweeper")
			return ctx.Err()
		case <-ticker.C:
			w.sweepOnce()
		}
	}
}

func (w *SessionSweeper) sweepOnce() int {
	n := w.store.SweepIdle(w.now().Add(-w.ttl))
	if n > 0 {
		metrics.IncSessionsSwept(n)
		w.log.Info().Int("count", n).Int("active", w.store.Len()).Msg("idle confirmation sessions discarded")
	}
	return n
}
