package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"voicegrab/internal/api"
	"voicegrab/internal/config"
	"voicegrab/internal/correlate"
	"voicegrab/internal/history"
	"voicegrab/internal/logging"
)

// Daemon coordinates the correlation engine and enforces single-instance
// execution via a lock file.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *correlate.Store
	resolver *correlate.Resolver
	seen     *correlate.SeenSet
	history  *history.Store
	hub      *eventHub
	schemas  *api.Schemas

	server  *apiServer
	sweeper *sweeper
	logPath string

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running          bool
	PID              int
	Store            correlate.Stats
	RetainedRequests int
	SeenHandles      int
	HistoryEntries   int
	HistoryDBPath    string
	LockFilePath     string
}

// Option customizes daemon construction.
type Option func(*options)

type options struct {
	clock correlate.Clock
}

// WithClock substitutes the time source used by the store, resolver, and
// seen set.
func WithClock(clock correlate.Clock) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// New constructs a daemon with initialized dependencies. The history store
// is opened only when enabled in configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires configuration")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	settings := &options{}
	for _, opt := range opts {
		opt(settings)
	}

	var storeOpts []correlate.Option
	if settings.clock != nil {
		storeOpts = append(storeOpts, correlate.WithClock(settings.clock))
	}
	store := correlate.NewStore(cfg, logger, storeOpts...)
	resolver := correlate.NewResolver(store, logger)
	seen := correlate.NewSeenSet(settings.clock)

	schemas, err := api.CompileSchemas()
	if err != nil {
		return nil, fmt.Errorf("compile request schemas: %w", err)
	}

	var hist *history.Store
	if cfg.History.Enabled {
		hist, err = history.Open(cfg)
		if err != nil {
			return nil, fmt.Errorf("open history store: %w", err)
		}
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "voicegrabd.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		resolver: resolver,
		seen:     seen,
		history:  hist,
		hub:      newEventHub(logger),
		schemas:  schemas,
		logPath:  filepath.Join(cfg.Paths.LogDir, "voicegrab.log"),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.server = newAPIServer(cfg, d, logger)
	d.sweeper = newSweeper(cfg, d, logger, settings.clock)
	return d, nil
}

// Start acquires the daemon lock and launches the API server and sweeper.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another voicegrab daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.server.start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start api server: %w", err)
	}
	d.sweeper.start(d.ctx)

	d.running.Store(true)
	d.logger.Info("voicegrab daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.server.stop()
	d.sweeper.stop()
	d.hub.close()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("voicegrab daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.history != nil {
		return d.history.Close()
	}
	return nil
}

// Addr returns the API listener address, empty until Start succeeds.
func (d *Daemon) Addr() string {
	return d.server.addr()
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:          d.running.Load(),
		PID:              os.Getpid(),
		Store:            d.store.Stats(),
		RetainedRequests: d.resolver.Pending(),
		SeenHandles:      d.seen.Len(),
		LockFilePath:     d.lockPath,
	}
	if d.history != nil {
		status.HistoryDBPath = d.history.Path()
		if count, err := d.history.Count(ctx); err == nil {
			status.HistoryEntries = count
		}
	}
	return status
}

// recordHistory persists a completed resolution when history is enabled.
func (d *Daemon) recordHistory(ctx context.Context, tabID string, outcome correlate.Outcome, suggestedName string, durationMs int64) {
	if d.history == nil || outcome.State != correlate.StateResolved {
		return
	}
	_, err := d.history.Record(ctx, history.Entry{
		RecordID:      outcome.RecordID,
		TabID:         tabID,
		DurationMs:    durationMs,
		DownloadURL:   outcome.DownloadURL,
		LastModified:  outcome.LastModified,
		SuggestedName: suggestedName,
	})
	if err != nil {
		d.logger.Warn("failed to record resolution history",
			logging.String(logging.FieldRecordID, outcome.RecordID),
			logging.Error(err),
		)
	}
}
