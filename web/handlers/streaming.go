package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/parleyhq/parley/internal/core"
	"github.com/parleyhq/parley/internal/events"
)

const (
	// streamHeartbeat keeps proxies from closing an idle SSE connection.
	streamHeartbeat = 15 * time.Second

	// streamInactivityLimit bounds how long a stream on an unfinished
	// debate waits without a single event before giving up with a
	// terminal error. Consumers never hang on a stalled debate.
	streamInactivityLimit = 10 * time.Minute
)

// handleDebateStream streams a debate's event log over Server-Sent Events.
// Stored events are replayed first (honoring Last-Event-ID), then live
// events follow as the engine produces them. The stream closes after the
// terminal done event.
func (h *Handler) handleDebateStream(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")
	slog.Debug("New debate stream connection", "thread_id", threadID, "remote_addr", r.RemoteAddr)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	flusher, ok := w.(http.Flusher)
	if !ok {
		slog.Error("Streaming unsupported: ResponseWriter does not implement http.Flusher")
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	state, err := h.engine.GetDebate(r.Context(), threadID)
	if err != nil {
		h.sendSSEError(w, flusher, "Debate not found")
		return
	}

	afterSeq := int64(-1)
	if lastID := r.Header.Get("Last-Event-ID"); lastID != "" {
		if parsed, err := strconv.ParseInt(lastID, 10, 64); err == nil {
			afterSeq = parsed
		}
	}

	// Subscribe before replaying so nothing emitted during the replay is
	// lost; the sequence cursor drops any duplicates.
	live, cancel := h.broadcaster.Subscribe(threadID)
	defer cancel()

	stored, err := h.engine.Events(r.Context(), threadID, afterSeq)
	if err != nil {
		slog.Error("Failed to load stored events for stream", "thread_id", threadID, "error", err)
		h.sendSSEError(w, flusher, "Failed to load events")
		return
	}

	lastSeq := afterSeq
	for _, ev := range stored {
		h.sendDebateEvent(w, flusher, ev)
		lastSeq = ev.Seq
		if ev.Type == events.TypeDone {
			return
		}
	}

	// A finished debate emits nothing further; close once replay is done.
	if state.Phase == core.PhaseFinished {
		return
	}

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	inactivity := time.NewTimer(streamInactivityLimit)
	defer inactivity.Stop()

	for {
		select {
		case <-r.Context().Done():
			slog.Debug("Stream context done", "thread_id", threadID)
			return

		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()

		case <-inactivity.C:
			slog.Warn("Stream timed out waiting for events", "thread_id", threadID)
			h.sendSSEError(w, flusher, "Stream timed out waiting for debate activity")
			return

		case ev, ok := <-live:
			if !ok {
				return
			}
			if ev.Seq <= lastSeq {
				continue
			}

			h.sendDebateEvent(w, flusher, ev)
			lastSeq = ev.Seq

			if !inactivity.Stop() {
				select {
				case <-inactivity.C:
				default:
				}
			}
			inactivity.Reset(streamInactivityLimit)

			if ev.Type == events.TypeDone {
				return
			}
		}
	}
}

// sendDebateEvent writes one debate event in SSE framing. The sequence
// number rides as the SSE id so clients can resume with Last-Event-ID.
func (h *Handler) sendDebateEvent(w http.ResponseWriter, flusher http.Flusher, ev events.Event) {
	jsonData, err := json.Marshal(ev)
	if err != nil {
		slog.Error("Failed to marshal SSE data", "error", err)
		return
	}

	if _, err := fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", ev.Seq, ev.Type, jsonData); err != nil {
		slog.Error("Failed to write SSE event", "error", err)
		return
	}
	flusher.Flush()
}

// sendSSEError sends an error event.
func (h *Handler) sendSSEError(w http.ResponseWriter, flusher http.Flusher, message string) {
	jsonData, _ := json.Marshal(map[string]string{"message": message})
	fmt.Fprintf(w, "event: error\ndata: %s\n\n", jsonData)
	flusher.Flush()
}
