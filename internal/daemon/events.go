package daemon

import (
	"log/slog"
	"net/http"
	"sync"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"voicegrab/internal/api"
	"voicegrab/internal/logging"
)

// subscriberBuffer bounds per-subscriber queues; a stalled extension drops
// events rather than blocking the registrars.
const subscriberBuffer = 16

// eventHub fans resolution events out to WebSocket subscribers.
type eventHub struct {
	mu          sync.Mutex
	logger      *slog.Logger
	subscribers map[chan api.Event]struct{}
	closed      bool
}

func newEventHub(logger *slog.Logger) *eventHub {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &eventHub{
		logger:      logger.With(logging.String(logging.FieldComponent, "event-hub")),
		subscribers: make(map[chan api.Event]struct{}),
	}
}

// subscribe registers a listener. The returned cancel func is idempotent.
func (h *eventHub) subscribe() (<-chan api.Event, func()) {
	ch := make(chan api.Event, subscriberBuffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if _, ok := h.subscribers[ch]; ok {
				delete(h.subscribers, ch)
				close(ch)
			}
			h.mu.Unlock()
		})
	}
	return ch, cancel
}

func (h *eventHub) broadcast(evt api.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	for ch := range h.subscribers {
		select {
		case ch <- evt:
		default:
			h.logger.Warn("event dropped for slow subscriber",
				logging.String(logging.FieldRecordID, evt.RecordID),
			)
		}
	}
}

func (h *eventHub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for ch := range h.subscribers {
		delete(h.subscribers, ch)
		close(ch)
	}
}

func (h *eventHub) subscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

func (s *apiServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// The daemon binds to loopback only; extension origins vary by
		// browser, so origin checking adds nothing here.
		InsecureSkipVerify: true,
	})
	if err != nil {
		s.log().Warn("websocket accept failed", logging.Error(err))
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	events, cancel := s.daemon.hub.subscribe()
	defer cancel()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			if err := wsjson.Write(ctx, conn, evt); err != nil {
				s.log().Debug("websocket write failed", logging.Error(err))
				return
			}
		}
	}
}
