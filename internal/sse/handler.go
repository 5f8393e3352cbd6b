package sse

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Handler serves the SSE stream for one dashboard session.
type Handler struct {
	manager *Manager
	logger  *slog.Logger
}

// NewHandler creates a new SSE handler.
func NewHandler(manager *Manager, logger *slog.Logger) *Handler {
	return &Handler{manager: manager, logger: logger}
}

// Serve streams events for the given session key until the client
// disconnects.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request, sessionKey string) {
	if r.Context().Err() != nil {
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	rc := http.NewResponseController(w)

	// Long-lived stream: clear the server's write deadline.
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Debug("failed to clear write deadline", "error", err)
	}

	if err := rc.Flush(); err != nil {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	client, err := h.manager.Connect(sessionKey)
	if err != nil {
		h.logger.Error("failed to register SSE client", "error", err)
		http.Error(w, "Failed to establish connection", http.StatusInternalServerError)
		return
	}
	defer h.manager.Disconnect(client.ID)

	if err := h.sendEvent(w, rc, Event{Type: "connected", SessionKey: sessionKey}); err != nil {
		return
	}

	ctx := r.Context()
	for {
		select {
		case event, ok := <-client.EventChan:
			if !ok {
				return
			}
			if err := h.sendEvent(w, rc, event); err != nil {
				h.logger.Debug("SSE write failed, closing stream",
					"client_id", client.ID, "error", err)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (h *Handler) sendEvent(w http.ResponseWriter, rc *http.ResponseController, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data); err != nil {
		return err
	}
	return rc.Flush()
}
