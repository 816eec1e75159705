package correlate

import (
	"log/slog"
	"sync"
	"time"

	"voicegrab/internal/logging"
)

// State is the terminal outcome of one resolution attempt.
type State string

const (
	// StateResolved means a download URL is known.
	StateResolved State = "resolved"
	// StateRecorded means no match exists yet; the request was retained and
	// a later resource signal may still satisfy it. Not a failure.
	StateRecorded State = "recorded"
)

// ResolveRequest is a user-initiated download request for an element and/or
// a duration.
type ResolveRequest struct {
	TabID      string
	ElementRef string
	DurationMs int64
}

// Outcome is the result of a resolution attempt. Callers branch on State;
// unresolved is an explicit value, never an error.
type Outcome struct {
	State        State
	RecordID     string
	DownloadURL  string
	LastModified string
}

// Promotion pairs a retained request with the outcome that satisfied it
// after the fact.
type Promotion struct {
	Request ResolveRequest
	Outcome Outcome
}

type retained struct {
	req ResolveRequest
	at  time.Time
}

// Resolver runs the resolution state machine: direct element lookup, then
// fuzzy duration lookup, then retain-for-later. Retained requests are
// promoted when a matching resource registration arrives.
type Resolver struct {
	mu       sync.Mutex
	store    *Store
	logger   *slog.Logger
	clock    Clock
	requests []retained
}

// NewResolver constructs a resolver over the given store. The resolver
// shares the store's clock so eviction boundaries agree.
func NewResolver(store *Store, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = logging.NewNop()
	}
	clock := Clock(time.Now)
	if store != nil && store.clock != nil {
		clock = store.clock
	}
	return &Resolver{
		store:  store,
		logger: logger.With(logging.String(logging.FieldComponent, "resolver")),
		clock:  clock,
	}
}

// Resolve attempts to satisfy a download request. It returns an error only
// for structural misuse (neither element nor duration supplied); a missing
// match yields StateRecorded.
func (r *Resolver) Resolve(req ResolveRequest) (Outcome, error) {
	if req.ElementRef == "" && req.DurationMs <= 0 {
		return Outcome{}, ErrEmptyResolve
	}

	durationMs := req.DurationMs

	if req.ElementRef != "" {
		if rec, ok := r.store.ResolveForElement(req.TabID, req.ElementRef); ok {
			if rec.Resolvable() {
				return resolvedOutcome(rec), nil
			}
			// Element is known but its resource has not arrived; fall back
			// to the record's duration for the fuzzy pass.
			if durationMs <= 0 {
				durationMs = rec.DurationMs
			}
		}
	}

	if durationMs > 0 {
		if rec, ok := r.store.FindByDuration(req.TabID, durationMs); ok && rec.Resolvable() {
			if req.ElementRef != "" {
				if updated, ok := r.store.attachElement(req.TabID, req.ElementRef, rec.ID); ok {
					rec = updated
				}
			}
			return resolvedOutcome(rec), nil
		}
	}

	r.retain(ResolveRequest{TabID: req.TabID, ElementRef: req.ElementRef, DurationMs: durationMs})
	return Outcome{State: StateRecorded}, nil
}

// NotifyResource inspects retained requests after a resource registration
// and promotes every request the new record satisfies.
func (r *Resolver) NotifyResource(rec Record) []Promotion {
	if !rec.Resolvable() {
		return nil
	}

	r.mu.Lock()
	var promoted []ResolveRequest
	kept := r.requests[:0]
	for _, entry := range r.requests {
		if entry.req.TabID == rec.TabID && r.store.IsMatch(entry.req.DurationMs, rec.DurationMs) {
			promoted = append(promoted, entry.req)
			continue
		}
		kept = append(kept, entry)
	}
	r.requests = kept
	r.mu.Unlock()

	promotions := make([]Promotion, 0, len(promoted))
	for _, req := range promoted {
		outcome := resolvedOutcome(rec)
		if req.ElementRef != "" {
			if updated, ok := r.store.attachElement(req.TabID, req.ElementRef, rec.ID); ok {
				outcome = resolvedOutcome(updated)
			}
		}
		r.logger.Info("retained request promoted",
			logging.String(logging.FieldRecordID, rec.ID),
			logging.Int64(logging.FieldDurationMs, req.DurationMs),
		)
		promotions = append(promotions, Promotion{Request: req, Outcome: outcome})
	}
	return promotions
}

// Pending returns the number of retained requests.
func (r *Resolver) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.requests)
}

// Evict drops retained requests older than maxAge and returns the count.
func (r *Resolver) Evict(maxAge time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.clock().Add(-maxAge)
	kept := r.requests[:0]
	removed := 0
	for _, entry := range r.requests {
		if entry.at.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, entry)
	}
	r.requests = kept
	return removed
}

func (r *Resolver) retain(req ResolveRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, entry := range r.requests {
		if entry.req.TabID == req.TabID && entry.req.ElementRef == req.ElementRef && entry.req.ElementRef != "" {
			r.requests[i] = retained{req: req, at: r.clock()}
			return
		}
	}
	r.requests = append(r.requests, retained{req: req, at: r.clock()})
	r.logger.Debug("unresolved request retained",
		logging.Int64(logging.FieldDurationMs, req.DurationMs),
		logging.Int("retained_total", len(r.requests)),
	)
}

func resolvedOutcome(rec Record) Outcome {
	return Outcome{
		State:        StateResolved,
		RecordID:     rec.ID,
		DownloadURL:  rec.DownloadURL,
		LastModified: rec.LastModified,
	}
}
