package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"canteen-connect/internal/logger"
	"canteen-connect/internal/messaging"

	"github.com/go-chi/chi/v5"
)

// FeedSource delivers live order events until the context is cancelled.
// Implemented by messaging.FeedConsumer.
type FeedSource interface {
	Subscribe(ctx context.Context, canteenID string, handler messaging.EventHandler) error
}

// FeedHandler streams order.created events to the admin dashboard over SSE.
// Each open connection gets its own exclusive feed queue; the browser's
// EventSource reconnects if the stream is cut.
type FeedHandler struct {
	feed   FeedSource
	logger *logger.Logger
}

func NewFeedHandler(feed FeedSource, log *logger.Logger) *FeedHandler {
	return &FeedHandler{feed: feed, logger: log}
}

func (h *FeedHandler) Stream(w http.ResponseWriter, r *http.Request) {
	canteenID := chi.URLParam(r, "canteen_id")
	if canteenID == "" {
		respondError(w, http.StatusBadRequest, "invalid_canteen_id", "canteen_id is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming_unsupported", "response writer does not support streaming")
		return
	}

	// the stream outlives the server's write timeout
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Debug("feed_deadline_unsupported", getRequestID(r.Context()), "could not clear write deadline", "error", err.Error())
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	err := h.feed.Subscribe(r.Context(), canteenID, func(_ context.Context, event *messaging.OrderCreatedEvent) error {
		data, marshalErr := json.Marshal(event)
		if marshalErr != nil {
			return marshalErr
		}
		if _, writeErr := fmt.Fprintf(w, "event: order.created\ndata: %s\n\n", data); writeErr != nil {
			return writeErr
		}
		flusher.Flush()
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		h.logger.Error("feed_stream_failed", getRequestID(r.Context()), "live order feed terminated", err,
			"canteen_id", canteenID,
		)
	}
}
