package triviad

import (
	"context"
	"time"

	"pkt.systems/pslog"

	"github.com/unicitynetwork/triviad/internal/clock"
)

// Sweeper periodically purges stale active questions from a SessionStore.
// It runs independently of request traffic; day passes are never swept, they
// expire lazily on read.
type Sweeper struct {
	store    *SessionStore
	interval time.Duration
	clock    clock.Clock
	logger   pslog.Logger
	metrics  *Metrics
}

// NewSweeper constructs a sweeper ticking at the given interval.
func NewSweeper(store *SessionStore, interval time.Duration, clk clock.Clock, logger pslog.Logger, metrics *Metrics) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = pslog.NoopLogger()
	}
	return &Sweeper{
		store:    store,
		interval: interval,
		clock:    clk,
		logger:   logger,
		metrics:  metrics,
	}
}

// Run sweeps on every tick until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	s.logger.Debug("question sweeper started", "interval", s.interval)
	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("question sweeper stopped")
			return
		case <-s.clock.After(s.interval):
			removed := s.store.SweepExpired()
			s.metrics.RecordQuestionsExpired(removed)
			if removed > 0 {
				s.logger.Info("removed stale questions", "count", removed)
			}
		}
	}
}
