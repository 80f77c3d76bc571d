package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"wedding-rsvp/internal/logger"
	"wedding-rsvp/internal/models"
)

// SubmissionEmitter fans submission events out to connected admin dashboards.
type SubmissionEmitter struct {
	clients map[chan models.SubmissionEvent]struct{}
	mu      sync.RWMutex
}

func NewSubmissionEmitter() *SubmissionEmitter {
	return &SubmissionEmitter{clients: make(map[chan models.SubmissionEvent]struct{})}
}

// Subscribe registers a client until ctx is done. The channel is closed
// after the client is removed.
func (e *SubmissionEmitter) Subscribe(ctx context.Context) <-chan models.SubmissionEvent {
	ch := make(chan models.SubmissionEvent, 10)

	e.mu.Lock()
	e.clients[ch] = struct{}{}
	e.mu.Unlock()

	go func() {
		<-ctx.Done()
		e.mu.Lock()
		delete(e.clients, ch)
		close(ch)
		e.mu.Unlock()
	}()
	return ch
}

// Emit never blocks: a client whose buffer is full misses the event.
func (e *SubmissionEmitter) Emit(evt models.SubmissionEvent) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for ch := range e.clients {
		select {
		case ch <- evt:
		default:
		}
	}
}

// PublishSubmission lets the emitter stand in for the Kafka producer.
func (e *SubmissionEmitter) PublishSubmission(_ context.Context, evt models.SubmissionEvent) error {
	e.Emit(evt)
	return nil
}

func (e *SubmissionEmitter) ClientCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.clients)
}

// StreamHandler serves the emitter as text/event-stream.
type StreamHandler struct {
	Emitter *SubmissionEmitter
	Logger  *logger.Logger
}

func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	// The server write timeout would otherwise cut the stream.
	_ = rc.SetWriteDeadline(time.Time{})
	setupHeaders(w)

	ctx := r.Context()
	events := h.Emitter.Subscribe(ctx)

	fmt.Fprint(w, "event: connected\ndata: {\"status\":\"connected\"}\n\n")
	if err := rc.Flush(); err != nil {
		h.Logger.Error("SSE", fmt.Sprintf("Streaming unsupported: %v", err))
		return
	}
	h.Logger.Info("SSE", "Admin client connected to submission stream")

	for {
		select {
		case evt, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(evt)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("Failed to serialize submission event: %v", err))
				continue
			}
			fmt.Fprintf(w, "event: submission\ndata: %s\n\n", data)
			_ = rc.Flush()
		case <-ctx.Done():
			h.Logger.Debug("SSE", "Admin client disconnected from submission stream")
			return
		}
	}
}

func setupHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Accel-Buffering", "no")
}
