package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/a-h/templ"
	"github.com/gorilla/mux"

	"github.com/mcoot/pointsbot/internal/dependencies/clock"
	"github.com/mcoot/pointsbot/internal/middleware"
	"github.com/mcoot/pointsbot/internal/model"
	"github.com/mcoot/pointsbot/internal/services/ledger"
	"github.com/mcoot/pointsbot/internal/services/query"
	"github.com/mcoot/pointsbot/internal/web/templates/components"
	"github.com/mcoot/pointsbot/internal/web/templates/layout"
	"github.com/mcoot/pointsbot/internal/web/templates/pages"
)

// RecentActivityLimit is how many entries the leaderboard's activity feed shows
const RecentActivityLimit = 10

// EventsPath is the SSE endpoint served by the API
const EventsPath = "/api/events"

// DashboardHandler renders the leaderboard and player pages
type DashboardHandler struct {
	ledger *ledger.Service
	query  *query.Service
	clock  clock.Clock
	locale query.Locale
	logger *slog.Logger
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(
	ledgerService *ledger.Service,
	queryService *query.Service,
	clk clock.Clock,
	locale query.Locale,
	logger *slog.Logger,
) *DashboardHandler {
	return &DashboardHandler{
		ledger: ledgerService,
		query:  queryService,
		clock:  clk,
		locale: locale,
		logger: logger.With(slog.String("component", "dashboard")),
	}
}

// Leaderboard renders GET /?page=
func (h *DashboardHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	ranking, err := h.query.Ranking(ctx, page)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	activity, err := h.activity(r)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, pages.Leaderboard(pages.LeaderboardData{
		PageData: layout.PageData{Title: "Rankings", EventsURL: EventsPath},
		Ranking:  ranking,
		Activity: activity,
		Now:      h.clock.Now(),
		Locale:   h.locale,
	}))
}

// Player renders GET /players/{id}
func (h *DashboardHandler) Player(w http.ResponseWriter, r *http.Request) {
	id, ok := h.playerID(w, r)
	if !ok {
		return
	}

	stats, err := h.query.PlayerStats(r.Context(), id, 0)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, pages.Player(pages.PlayerData{
		PageData: layout.PageData{
			Title:     "@" + stats.Player.Username,
			EventsURL: fmt.Sprintf("%s?playerId=%d", EventsPath, id),
		},
		Stats:  stats,
		Now:    h.clock.Now(),
		Locale: h.locale,
	}))
}

// PlayerHistory renders the history list fragment for GET /players/{id}/history
func (h *DashboardHandler) PlayerHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := h.playerID(w, r)
	if !ok {
		return
	}

	stats, err := h.query.PlayerStats(r.Context(), id, 0)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, components.HistoryList(stats.History, h.clock.Now(), h.locale))
}

func (h *DashboardHandler) activity(r *http.Request) ([]components.ActivityItem, error) {
	entries, err := h.query.RecentActivity(r.Context(), RecentActivityLimit)
	if err != nil {
		return nil, err
	}
	players, err := h.ledger.ListPlayers(r.Context())
	if err != nil {
		return nil, err
	}

	names := make(map[model.PlayerID]string, len(players))
	for _, p := range players {
		names[p.ID] = p.Username
	}

	items := make([]components.ActivityItem, len(entries))
	for i, e := range entries {
		name, ok := names[e.PlayerID]
		if !ok {
			name = "Unknown"
		}
		items[i] = components.ActivityItem{Username: name, Entry: e}
	}
	return items, nil
}

func (h *DashboardHandler) playerID(w http.ResponseWriter, r *http.Request) (model.PlayerID, bool) {
	n, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		h.render(w, r, http.StatusNotFound, pages.NotFound(layout.PageData{Title: "Not Found"}, "Player not found"))
		return 0, false
	}
	return model.PlayerID(n), true
}

func (h *DashboardHandler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, model.ErrPlayerNotFound) {
		h.render(w, r, http.StatusNotFound, pages.NotFound(layout.PageData{Title: "Not Found"}, "Player not found"))
		return
	}

	h.logger.Error("failed to load dashboard data",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	h.render(w, r, http.StatusInternalServerError, pages.Error(layout.PageData{Title: "Error"}, middleware.GetRequestID(r.Context())))
}

func (h *DashboardHandler) render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		h.logger.Error("failed to render page", slog.String("error", err.Error()))
	}
}
