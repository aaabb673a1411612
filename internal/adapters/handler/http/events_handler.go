package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/livepoll/livepoll/internal/core/ports"
)

// EventsHandler streams state snapshots to clients over Server-Sent Events.
// Each subscriber gets the latest snapshot on connect and a fresh one after
// every storage change; clients re-derive percentages and has-voted state
// locally instead of patching.
type EventsHandler struct {
	watcher ports.Watcher
}

func NewEventsHandler(watcher ports.Watcher) *EventsHandler {
	return &EventsHandler{
		watcher: watcher,
	}
}

func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "storage", "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// Subscription lifetime is exactly the request lifetime: unsubscribing
	// on disconnect is what keeps the hub from leaking channels.
	sub := h.watcher.Subscribe()
	defer sub.Close()

	// Snapshots are shared across subscribers; each stream strips voter
	// attribution for polls the caller did not create.
	session, _ := SessionFromContext(r.Context())

	for {
		select {
		case <-r.Context().Done():
			return
		case snapshot, ok := <-sub.C:
			if !ok {
				return
			}
			view := ports.Snapshot{
				Polls:       redactPolls(snapshot.Polls, session),
				Leaderboard: snapshot.Leaderboard,
			}
			payload, err := json.Marshal(view)
			if err != nil {
				slog.Error("failed to marshal snapshot", "error", err)
				continue
			}
			if _, err := w.Write([]byte("data: ")); err != nil {
				return
			}
			if _, err := w.Write(payload); err != nil {
				return
			}
			if _, err := w.Write([]byte("\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
