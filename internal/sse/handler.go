package sse

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/inkwellapp/inkwell-server/internal/http/response"
)

// UserResolver returns the signed-in user id for r, or "" for anonymous.
type UserResolver func(r *http.Request) string

// Handler serves the event stream.
type Handler struct {
	manager      *Manager
	resolveUser  UserResolver
	logger       *slog.Logger
	writeTimeout time.Duration
}

// NewHandler creates a Handler. A nil resolveUser makes every stream
// anonymous.
func NewHandler(manager *Manager, resolveUser UserResolver, logger *slog.Logger) *Handler {
	if resolveUser == nil {
		resolveUser = func(*http.Request) string { return "" }
	}
	return &Handler{
		manager:      manager,
		resolveUser:  resolveUser,
		logger:       logger,
		writeTimeout: time.Minute,
	}
}

// ServeHTTP opens a stream and relays events until the client goes away or
// the manager drops it.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		response.MethodNotAllowed(w, h.logger)
		return
	}

	client, err := h.manager.Connect(h.resolveUser(r))
	if err != nil {
		h.logger.Warn("event stream refused", "error", err)
		if errors.Is(err, ErrClosed) {
			response.ServiceUnavailable(w, "event stream is shutting down", h.logger)
			return
		}
		response.InternalError(w, h.logger)
		return
	}
	defer h.manager.Disconnect(client.ID)

	hdr := w.Header()
	hdr.Set("Content-Type", "text/event-stream")
	hdr.Set("Cache-Control", "no-cache")
	hdr.Set("Connection", "keep-alive")
	hdr.Set("X-Accel-Buffering", "no")

	rc := http.NewResponseController(w)
	log := h.logger.With("client_id", client.ID)

	hello := map[string]string{"client_id": client.ID, "message": "SSE connection established"}
	if err := h.write(w, rc, "connected", hello); err != nil {
		log.Debug("event stream closed before handshake", "error", err)
		return
	}

	for {
		select {
		case e, ok := <-client.EventChan:
			if !ok {
				return
			}
			if err := h.write(w, rc, string(e.Type), e); err != nil {
				log.Debug("event stream write failed", "error", err)
				return
			}
		case <-client.Done:
			return
		case <-r.Context().Done():
			return
		}
	}
}

// write sends one SSE frame and pushes the write deadline forward so a
// stalled reader is eventually cut off.
func (h *Handler) write(w http.ResponseWriter, rc *http.ResponseController, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event, err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	if err := rc.Flush(); err != nil {
		return err
	}
	if err := rc.SetWriteDeadline(time.Now().Add(h.writeTimeout)); err != nil && !errors.Is(err, http.ErrNotSupported) {
		h.logger.Debug("set write deadline", "error", err)
	}
	return nil
}
