package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/kozaktomas/face-overlay/internal/session"
	"golang.org/x/text/language"
)

// EventResponse is a session event rendered for one client.
type EventResponse struct {
	Type       session.EventType `json:"type"`
	Mode       session.Mode      `json:"mode"`
	Processing bool              `json:"processing"`
	RunID      string            `json:"run_id,omitempty"`
	Version    uint64            `json:"version"`
	Notice     *NoticeResponse   `json:"notice,omitempty"`
	Run        *session.RunStats `json:"run,omitempty"`
}

func (h *SessionHandler) buildEvent(tag language.Tag, e session.Event) EventResponse {
	return EventResponse{
		Type:       e.Type,
		Mode:       e.Mode,
		Processing: e.Mode == session.Processing,
		RunID:      e.RunID,
		Version:    e.Version,
		Notice:     h.renderNotice(tag, e.Notice),
		Run:        e.Run,
	}
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) {
	jsonData, _ := json.Marshal(data)
	_, _ = io.WriteString(w, "event: "+eventType+"\n")
	_, _ = io.WriteString(w, "data: ")
	_, _ = io.Copy(w, bytes.NewReader(jsonData))
	_, _ = io.WriteString(w, "\n\n")
	flusher.Flush()
}

// Events streams session events. The first event is the full state.
func (h *SessionHandler) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	eventCh := h.session.Subscribe()
	defer h.session.Unsubscribe(eventCh)

	snap, err := h.session.Snapshot()
	if err != nil {
		h.respondSessionError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	tag := h.language(r)
	sendSSEEvent(w, flusher, "state", h.buildState(tag, snap))

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-eventCh:
			if !ok {
				return
			}
			sendSSEEvent(w, flusher, string(event.Type), h.buildEvent(tag, event))
		}
	}
}
