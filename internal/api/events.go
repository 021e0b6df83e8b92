package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/studyvoice/advisor/internal/recommend"
)

// writeTimeout bounds a single event write so one stalled client cannot
// wedge its stream goroutine.
const writeTimeout = 5 * time.Second

// event is one message on the /api/events stream. Every store mutation
// produces a full snapshot; clients replace their local list wholesale.
type event struct {
	Type    string             `json:"type"`
	Courses []recommend.Course `json:"courses"`
}

// hub fans course-store snapshots out to connected stream clients. Each
// subscriber owns a capacity-one mailbox holding the latest snapshot; a slow
// reader sees intermediate snapshots collapse into the newest one.
type hub struct {
	mu   sync.Mutex
	subs map[chan []recommend.Course]struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[chan []recommend.Course]struct{})}
}

// subscribe registers a new mailbox. The returned cancel func must be
// called when the client disconnects.
func (h *hub) subscribe() (<-chan []recommend.Course, func()) {
	ch := make(chan []recommend.Course, 1)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
	}
	return ch, cancel
}

// broadcast delivers the snapshot to every mailbox, replacing any pending
// older snapshot. Registered as a store change callback.
func (h *hub) broadcast(snapshot []recommend.Course) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs {
		select {
		case ch <- snapshot:
		default:
			// Mailbox full: the pending snapshot is stale, swap it out.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snapshot:
			default:
			}
		}
	}
}

// events handles GET /api/events: a WebSocket stream that sends the current
// course list on connect and a fresh snapshot after every store mutation.
func (s *Server) events(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// The UI dev server runs on a different port than the API.
		InsecureSkipVerify: true,
	})
	if err != nil {
		slog.Warn("event stream: websocket accept failed", "err", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	s.deps.Metrics.EventSubscribers.Add(r.Context(), 1)
	defer s.deps.Metrics.EventSubscribers.Add(context.Background(), -1)

	ch, cancel := s.hub.subscribe()
	defer cancel()

	// No client messages are expected; CloseRead watches for disconnect.
	ctx := conn.CloseRead(r.Context())

	if err := writeEvent(ctx, conn, s.deps.Courses.List(ctx)); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case snapshot := <-ch:
			if err := writeEvent(ctx, conn, snapshot); err != nil {
				return
			}
		}
	}
}

// writeEvent sends one snapshot with a write deadline.
func writeEvent(ctx context.Context, conn *websocket.Conn, courses []recommend.Course) error {
	if courses == nil {
		courses = []recommend.Course{}
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, event{Type: "coursesUpdated", Courses: courses})
}
