package daemon

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"voicegrab/internal/config"
	"voicegrab/internal/correlate"
	"voicegrab/internal/logging"
)

// sweeper periodically evicts aged correlation records, retained resolve
// requests, and seen handles, and prunes the history archive.
type sweeper struct {
	cfg    *config.Config
	daemon *Daemon
	logger *slog.Logger
	clock  correlate.Clock

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func newSweeper(cfg *config.Config, d *Daemon, logger *slog.Logger, clock correlate.Clock) *sweeper {
	if logger == nil {
		logger = logging.NewNop()
	}
	if clock == nil {
		clock = time.Now
	}
	return &sweeper{
		cfg:    cfg,
		daemon: d,
		logger: logger.With(logging.String(logging.FieldComponent, "sweeper")),
		clock:  clock,
	}
}

func (s *sweeper) start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(runCtx)
}

func (s *sweeper) stop() {
	if s.cancel == nil {
		return
	}
	s.once.Do(func() {
		s.cancel()
		<-s.done
	})
}

func (s *sweeper) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.cfg.SweepInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep runs one eviction pass. Exposed to tests through the daemon.
func (s *sweeper) sweep(ctx context.Context) {
	maxAge := s.cfg.MaxRecordAge()
	records := s.daemon.store.Evict(maxAge)
	retained := s.daemon.resolver.Evict(maxAge)
	handles := s.daemon.seen.Evict(maxAge)

	var pruned int64
	if s.daemon.history != nil && s.cfg.History.RetentionDays > 0 {
		cutoff := s.clock().Add(-s.cfg.HistoryRetention())
		count, err := s.daemon.history.Prune(ctx, cutoff)
		if err != nil {
			s.logger.Warn("history prune failed", logging.Error(err))
		} else {
			pruned = count
		}
	}

	if records > 0 || retained > 0 || handles > 0 || pruned > 0 {
		s.logger.Info("eviction sweep completed",
			logging.Int("records", records),
			logging.Int("retained_requests", retained),
			logging.Int("seen_handles", handles),
			logging.Int64("history_pruned", pruned),
		)
	}
}

// Sweep triggers an immediate eviction pass.
func (d *Daemon) Sweep(ctx context.Context) {
	d.sweeper.sweep(ctx)
}
