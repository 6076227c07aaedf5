package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"aggies-attic/internal/apperr"
	"aggies-attic/internal/changes"
	"aggies-attic/internal/logger"
	"aggies-attic/internal/utils"
)

const keepAliveInterval = 25 * time.Second

type Handler struct {
	Broadcaster *Broadcaster
	Logger      *logger.Logger
}

// Stream serves GET /api/changes/stream[?entity=event|listing].
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	entity := changes.Entity(r.URL.Query().Get("entity"))
	if entity != "" && entity != changes.EntityEvent && entity != changes.EntityListing {
		utils.WriteError(w, apperr.Validation("Invalid entity"))
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.WriteError(w, apperr.Unexpected("Streaming unsupported", nil))
		return
	}

	// The server-wide write timeout would end the stream.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ctx := r.Context()
	updates := h.Broadcaster.Subscribe(ctx, entity)
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-updates:
			if !ok {
				return
			}
			data, err := json.Marshal(c)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("encode change: %v", err))
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", c.Entity, data)
			flusher.Flush()
		case <-ticker.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		}
	}
}
