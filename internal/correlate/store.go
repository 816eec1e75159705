package correlate

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"voicegrab/internal/config"
	"voicegrab/internal/logging"
)

// Store is the central registry of correlation records. One Store is
// constructed per daemon and passed by reference to the registrars, the
// resolver, and the sweeper; there is no package-level state.
//
// Every operation is a single short critical section under one mutex, so
// interleaving between signal sources is only observable between calls,
// never within one.
type Store struct {
	mu          sync.Mutex
	logger      *slog.Logger
	clock       Clock
	toleranceMs int64
	maxRecords  int

	records   []*Record         // insertion order; scan order for matching
	byID      map[string]*Record
	byElement map[string]string // tab+elementRef -> record id
}

// Option customizes store construction.
type Option func(*Store)

// WithClock substitutes the store's time source.
func WithClock(clock Clock) Option {
	return func(s *Store) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewStore constructs an empty store using the configured tolerance and
// record cap.
func NewStore(cfg *config.Config, logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Store{
		logger:      logger.With(logging.String(logging.FieldComponent, "store")),
		clock:       time.Now,
		toleranceMs: cfg.Store.ToleranceMs,
		maxRecords:  cfg.Store.MaxRecords,
		byID:        make(map[string]*Record),
		byElement:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsMatch reports whether two durations identify the same clip. Symmetric.
func (s *Store) IsMatch(a, b int64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff <= s.toleranceMs
}

// RegisterResource merges a resource-side signal into a matching record, or
// creates a pending one. Registering the same locator and duration twice
// yields the same record.
func (s *Store) RegisterResource(sig ResourceSignal) (Record, error) {
	if sig.DurationMs <= 0 {
		return Record{}, ErrMissingDuration
	}
	if sig.URL == "" {
		return Record{}, ErrMissingLocator
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if rec := s.match(sig.TabID, sig.DurationMs, false); rec != nil {
		s.mergeResource(rec, sig)
		s.logger.Debug("resource signal merged",
			logging.String(logging.FieldRecordID, rec.ID),
			logging.Int64(logging.FieldDurationMs, rec.DurationMs),
		)
		return *rec, nil
	}

	rec := &Record{
		ID:           uuid.NewString(),
		TabID:        sig.TabID,
		DurationMs:   sig.DurationMs,
		DownloadURL:  sig.URL,
		LastModified: sig.LastModified,
		BlobType:     sig.BlobType,
		BlobSize:     sig.BlobSize,
		CreatedAt:    s.clock(),
		Pending:      true,
		Estimated:    sig.Estimated,
	}
	s.insert(rec)
	s.logger.Debug("pending record created",
		logging.String(logging.FieldRecordID, rec.ID),
		logging.Int64(logging.FieldDurationMs, rec.DurationMs),
	)
	return *rec, nil
}

// RegisterElement attaches an element-side signal to a matching record, or
// creates one with no download URL yet. Re-registering a known element
// returns its existing record.
func (s *Store) RegisterElement(sig ElementSignal) (Record, error) {
	if sig.ElementRef == "" {
		return Record{}, ErrMissingElement
	}
	if sig.DurationMs <= 0 {
		return Record{}, ErrMissingDuration
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := elementKey(sig.TabID, sig.ElementRef)
	if id, ok := s.byElement[key]; ok {
		if rec, ok := s.byID[id]; ok {
			return *rec, nil
		}
		delete(s.byElement, key)
	}

	if rec := s.match(sig.TabID, sig.DurationMs, false); rec != nil {
		if rec.ElementRef != "" && rec.ElementRef != sig.ElementRef {
			delete(s.byElement, elementKey(rec.TabID, rec.ElementRef))
		}
		rec.ElementRef = sig.ElementRef
		rec.Pending = false
		if rec.Estimated {
			// An element-side duration is read from the player and outranks
			// a byte-size estimate.
			rec.DurationMs = sig.DurationMs
			rec.Estimated = false
		}
		s.byElement[key] = rec.ID
		s.logger.Debug("element attached",
			logging.String(logging.FieldRecordID, rec.ID),
			logging.Int64(logging.FieldDurationMs, rec.DurationMs),
		)
		return *rec, nil
	}

	rec := &Record{
		ID:         uuid.NewString(),
		TabID:      sig.TabID,
		DurationMs: sig.DurationMs,
		ElementRef: sig.ElementRef,
		CreatedAt:  s.clock(),
	}
	s.insert(rec)
	s.byElement[key] = rec.ID
	s.logger.Debug("element record created",
		logging.String(logging.FieldRecordID, rec.ID),
		logging.Int64(logging.FieldDurationMs, rec.DurationMs),
	)
	return *rec, nil
}

// Get returns a record snapshot by id.
func (s *Store) Get(id string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[id]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// FindByDuration returns the first record within tolerance of durationMs in
// insertion order, scoped to tabID when non-empty.
func (s *Store) FindByDuration(tabID string, durationMs int64) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.match(tabID, durationMs, false)
	if rec == nil {
		return Record{}, false
	}
	return *rec, true
}

// FindPendingByDuration is FindByDuration restricted to pending records.
func (s *Store) FindPendingByDuration(tabID string, durationMs int64) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.match(tabID, durationMs, true)
	if rec == nil {
		return Record{}, false
	}
	return *rec, true
}

// ResolveForElement returns the record attached to an element reference.
func (s *Store) ResolveForElement(tabID, elementRef string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byElement[elementKey(tabID, elementRef)]
	if !ok {
		return Record{}, false
	}
	rec, ok := s.byID[id]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// Evict deletes every record older than maxAge and returns the count.
func (s *Store) Evict(maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.clock().Add(-maxAge)
	kept := s.records[:0]
	removed := 0
	for _, rec := range s.records {
		if rec.CreatedAt.Before(cutoff) {
			s.drop(rec)
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	s.records = kept
	if removed > 0 {
		s.logger.Debug("records evicted", logging.Int("count", removed))
	}
	return removed
}

// Stats summarizes store contents.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := Stats{Total: len(s.records)}
	for _, rec := range s.records {
		if rec.Pending {
			stats.Pending++
		}
		if rec.Resolvable() {
			stats.Resolvable++
		}
	}
	return stats
}

// match returns the first record within tolerance in insertion order.
// Callers must hold s.mu.
func (s *Store) match(tabID string, durationMs int64, pendingOnly bool) *Record {
	for _, rec := range s.records {
		if pendingOnly && !rec.Pending {
			continue
		}
		if rec.TabID != tabID {
			continue
		}
		if s.IsMatch(rec.DurationMs, durationMs) {
			return rec
		}
	}
	return nil
}

// mergeResource applies a resource signal to an existing record. Fields are
// enriched monotonically: a non-empty value may be replaced by a later
// non-empty value, never cleared.
func (s *Store) mergeResource(rec *Record, sig ResourceSignal) {
	if sig.URL != "" {
		rec.DownloadURL = sig.URL
	}
	if sig.LastModified != "" {
		rec.LastModified = sig.LastModified
	}
	if sig.BlobType != "" {
		rec.BlobType = sig.BlobType
	}
	if sig.BlobSize > 0 {
		rec.BlobSize = sig.BlobSize
	}
	if rec.Estimated && !sig.Estimated {
		rec.DurationMs = sig.DurationMs
		rec.Estimated = false
	}
	if rec.ElementRef != "" {
		rec.Pending = false
	}
}

// attachElement binds an element reference to an existing record, used when
// a retained resolution is promoted. Returns the updated snapshot.
func (s *Store) attachElement(tabID, elementRef, id string) (Record, bool) {
	if elementRef == "" {
		return Record{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[id]
	if !ok {
		return Record{}, false
	}
	if rec.ElementRef != "" && rec.ElementRef != elementRef {
		delete(s.byElement, elementKey(rec.TabID, rec.ElementRef))
	}
	rec.ElementRef = elementRef
	rec.Pending = false
	s.byElement[elementKey(tabID, elementRef)] = rec.ID
	return *rec, true
}

// insert appends a record, dropping the oldest when the cap is exceeded.
// Callers must hold s.mu.
func (s *Store) insert(rec *Record) {
	s.records = append(s.records, rec)
	s.byID[rec.ID] = rec
	if s.maxRecords > 0 && len(s.records) > s.maxRecords {
		oldest := s.records[0]
		s.records = s.records[1:]
		s.drop(oldest)
		s.logger.Warn("record cap reached, oldest dropped",
			logging.String(logging.FieldRecordID, oldest.ID),
		)
	}
}

// drop removes a record from the lookup maps. Callers must hold s.mu.
func (s *Store) drop(rec *Record) {
	delete(s.byID, rec.ID)
	if rec.ElementRef != "" {
		delete(s.byElement, elementKey(rec.TabID, rec.ElementRef))
	}
}

func elementKey(tabID, elementRef string) string {
	return tabID + "\x00" + elementRef
}
