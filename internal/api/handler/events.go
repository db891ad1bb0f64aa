package handler

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/pointsbot/internal/web/sse"
)

// EventsHandler streams ledger events over Server-Sent Events
type EventsHandler struct {
	hubManager *sse.HubManager
	logger     *slog.Logger
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(hubManager *sse.HubManager, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{hubManager: hubManager, logger: logger}
}

// Stream handles GET /api/events. With ?playerId= only that player's
// updates are sent.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	topic := sse.TopicLedger
	if raw := r.URL.Query().Get("playerId"); raw != "" {
		id, err := parsePlayerID(raw)
		if err != nil {
			writeError(h.logger, w, r, err)
			return
		}
		topic = sse.PlayerTopic(id)
	}

	sse.ServeSSE(w, r, h.hubManager, topic)
}
