package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mcoot/pointsbot/internal/api/request"
	"github.com/mcoot/pointsbot/internal/api/response"
	"github.com/mcoot/pointsbot/internal/model"
	"github.com/mcoot/pointsbot/internal/services/ledger"
	"github.com/mcoot/pointsbot/internal/services/query"
)

// PlayerHandler handles player and read-only ledger endpoints
type PlayerHandler struct {
	ledger *ledger.Service
	query  *query.Service
	logger *slog.Logger
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(ledgerService *ledger.Service, queryService *query.Service, logger *slog.Logger) *PlayerHandler {
	return &PlayerHandler{
		ledger: ledgerService,
		query:  queryService,
		logger: logger,
	}
}

// List handles GET /api/players
func (h *PlayerHandler) List(w http.ResponseWriter, r *http.Request) {
	players, err := h.ledger.ListPlayers(r.Context())
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, response.PlayersFromModel(players))
}

// Get handles GET /api/players/{id}
func (h *PlayerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parsePlayerID(mux.Vars(r)["id"])
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	player, err := h.ledger.GetPlayer(r.Context(), id)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, response.PlayerFromModel(player))
}

// Create handles POST /api/players
func (h *PlayerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreatePlayerRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	if req.DiscordID == nil {
		writeError(h.logger, w, r, NewInvalidRequestError("discordId is required"))
		return
	}
	if req.Username == nil {
		writeError(h.logger, w, r, NewInvalidRequestError("username is required"))
		return
	}
	points := 0
	if req.Points != nil {
		points = *req.Points
	}

	player, err := h.ledger.CreatePlayer(r.Context(), *req.DiscordID, *req.Username, points)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, response.PlayerFromModel(player))
}

// History handles GET /api/point-history?playerId=
func (h *PlayerHandler) History(w http.ResponseWriter, r *http.Request) {
	var filter *model.PlayerID
	if raw := r.URL.Query().Get("playerId"); raw != "" {
		id, err := parsePlayerID(raw)
		if err != nil {
			writeError(h.logger, w, r, err)
			return
		}
		filter = &id
	}

	history, err := h.ledger.GetHistory(r.Context(), filter)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, response.HistoryFromModel(history))
}

// Stats handles GET /api/players/{id}/stats
func (h *PlayerHandler) Stats(w http.ResponseWriter, r *http.Request) {
	id, err := parsePlayerID(mux.Vars(r)["id"])
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	stats, err := h.query.PlayerStats(r.Context(), id, 0)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, response.StatsFromQuery(stats))
}

// Rankings handles GET /api/rankings?page=
func (h *PlayerHandler) Rankings(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(h.logger, w, r, NewInvalidRequestError("page must be a number"))
			return
		}
		page = n
	}

	ranking, err := h.query.Ranking(r.Context(), page)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, response.RankingFromQuery(ranking))
}

func parsePlayerID(raw string) (model.PlayerID, error) {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, NewInvalidRequestError("Invalid player ID")
	}
	return model.PlayerID(n), nil
}
