package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"voicegrab/internal/api"
	"voicegrab/internal/config"
	"voicegrab/internal/correlate"
	"voicegrab/internal/duration"
	"voicegrab/internal/logging"
	"voicegrab/internal/textutil"
)

const maxRequestBody = 1 << 20

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:   strings.TrimSpace(cfg.Paths.APIBind),
		logger: logger,
		daemon: d,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/register/element", srv.handleRegisterElement)
	mux.HandleFunc("/api/register/resource", srv.handleRegisterResource)
	mux.HandleFunc("/api/resolve", srv.handleResolve)
	mux.HandleFunc("/api/status", srv.handleStatus)
	mux.HandleFunc("/api/events", srv.handleEvents)

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// handler returns the HTTP handler, used by in-process tests.
func (s *apiServer) handler() http.Handler {
	return s.server.Handler
}

func (s *apiServer) handleRegisterElement(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	if err := api.Validate(s.daemon.schemas.RegisterElement, body); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req api.RegisterElementRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// A repeat sighting is acknowledged without touching the store. The
	// fallthrough covers handles that outlived their record's eviction.
	if !s.daemon.seen.Mark("element\x00" + req.TabID + "\x00" + req.ElementID) {
		if rec, ok := s.daemon.store.ResolveForElement(req.TabID, req.ElementID); ok {
			s.writeJSON(w, http.StatusOK, api.RegisterResponse{
				RecordID:   rec.ID,
				DurationMs: rec.DurationMs,
				Pending:    rec.Pending,
				Estimated:  rec.Estimated,
				Duplicate:  true,
			})
			return
		}
	}

	rec, err := s.daemon.store.RegisterElement(correlate.ElementSignal{
		TabID:      req.TabID,
		ElementRef: req.ElementID,
		DurationMs: req.DurationMs,
	})
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, api.RegisterResponse{
		RecordID:   rec.ID,
		DurationMs: rec.DurationMs,
		Pending:    rec.Pending,
		Estimated:  rec.Estimated,
	})
}

func (s *apiServer) handleRegisterResource(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	if err := api.Validate(s.daemon.schemas.RegisterResource, body); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req api.RegisterResourceRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	durationMs := req.DurationMs
	estimated := false
	if durationMs <= 0 {
		result, derived := duration.Extract(duration.Metadata{
			Headers:     req.Headers,
			Locator:     req.URL,
			ContentType: req.ContentType,
			SizeBytes:   req.BlobSize,
		}, duration.Options{
			FallbackBitrateKbps: s.daemon.cfg.Extractor.FallbackBitrateKbps,
			MinMillis:           s.daemon.cfg.Extractor.MinDurationMs,
			MaxMillis:           s.daemon.cfg.Extractor.MaxDurationMs,
		})
		if !derived {
			s.writeError(w, http.StatusUnprocessableEntity, "could not derive duration from resource metadata")
			return
		}
		durationMs = result.Millis
		estimated = result.Estimated
	}

	// An already-seen locator is acknowledged without re-merging or
	// re-firing promotions; the duration check guards against a different
	// record having claimed the handle's window after eviction.
	if !s.daemon.seen.Mark("resource\x00" + req.TabID + "\x00" + req.URL) {
		if rec, ok := s.daemon.store.FindByDuration(req.TabID, durationMs); ok && rec.DownloadURL == req.URL {
			s.writeJSON(w, http.StatusOK, api.RegisterResponse{
				RecordID:   rec.ID,
				DurationMs: rec.DurationMs,
				Pending:    rec.Pending,
				Estimated:  rec.Estimated,
				Duplicate:  true,
			})
			return
		}
	}

	rec, err := s.daemon.store.RegisterResource(correlate.ResourceSignal{
		TabID:        req.TabID,
		URL:          req.URL,
		LastModified: req.LastModified,
		BlobType:     req.BlobType,
		BlobSize:     req.BlobSize,
		DurationMs:   durationMs,
		Estimated:    estimated,
	})
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.promote(r.Context(), rec)

	s.writeJSON(w, http.StatusOK, api.RegisterResponse{
		RecordID:   rec.ID,
		DurationMs: rec.DurationMs,
		Pending:    rec.Pending,
		Estimated:  rec.Estimated,
	})
}

func (s *apiServer) handleResolve(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	if err := api.Validate(s.daemon.schemas.Resolve, body); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req api.ResolveRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	outcome, err := s.daemon.resolver.Resolve(correlate.ResolveRequest{
		TabID:      req.TabID,
		ElementRef: req.ElementID,
		DurationMs: req.DurationMs,
	})
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := api.ResolveResponse{State: string(outcome.State)}
	if outcome.State == correlate.StateResolved {
		durationMs := req.DurationMs
		if rec, ok := s.daemon.store.Get(outcome.RecordID); ok {
			durationMs = rec.DurationMs
		}
		resp.RecordID = outcome.RecordID
		resp.DownloadURL = outcome.DownloadURL
		resp.LastModified = outcome.LastModified
		resp.SuggestedName = textutil.SuggestedFileName(outcome.DownloadURL, outcome.LastModified, durationMs)
		s.daemon.recordHistory(r.Context(), req.TabID, outcome, resp.SuggestedName, durationMs)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status(r.Context())
	s.writeJSON(w, http.StatusOK, api.StatusResponse{
		Running: status.Running,
		PID:     status.PID,
		Store: api.StoreStats{
			Total:      status.Store.Total,
			Pending:    status.Store.Pending,
			Resolvable: status.Store.Resolvable,
		},
		RetainedRequests: status.RetainedRequests,
		SeenHandles:      status.SeenHandles,
		HistoryEntries:   status.HistoryEntries,
		HistoryDBPath:    status.HistoryDBPath,
		LockFilePath:     status.LockFilePath,
	})
}

// promote publishes retroactive resolutions triggered by a new resource
// record, and archives them.
func (s *apiServer) promote(ctx context.Context, rec correlate.Record) {
	for _, promotion := range s.daemon.resolver.NotifyResource(rec) {
		name := textutil.SuggestedFileName(
			promotion.Outcome.DownloadURL,
			promotion.Outcome.LastModified,
			rec.DurationMs,
		)
		s.daemon.hub.broadcast(api.Event{
			Type:          api.EventTypeResolved,
			TabID:         promotion.Request.TabID,
			ElementID:     promotion.Request.ElementRef,
			RecordID:      promotion.Outcome.RecordID,
			DownloadURL:   promotion.Outcome.DownloadURL,
			LastModified:  promotion.Outcome.LastModified,
			SuggestedName: name,
		})
		s.daemon.recordHistory(ctx, promotion.Request.TabID, promotion.Outcome, name, rec.DurationMs)
	}
}

func (s *apiServer) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return nil, false
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "read request body: "+err.Error())
		return nil, false
	}
	return body, true
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String(logging.FieldComponent, "api-server"))
	}
	return logging.NewNop()
}
