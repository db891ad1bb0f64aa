package handler

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/pointsbot/internal/api/request"
	"github.com/mcoot/pointsbot/internal/api/response"
	"github.com/mcoot/pointsbot/internal/services/ledger"
)

// PointsHandler handles the point-mutating endpoints
type PointsHandler struct {
	ledger *ledger.Service
	logger *slog.Logger
}

// NewPointsHandler creates a new points handler
func NewPointsHandler(ledgerService *ledger.Service, logger *slog.Logger) *PointsHandler {
	return &PointsHandler{ledger: ledgerService, logger: logger}
}

// Add handles POST /api/points/add
func (h *PointsHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req request.AddPointsRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	if req.PlayerID == nil {
		writeError(h.logger, w, r, NewInvalidRequestError("playerId is required"))
		return
	}
	if req.Amount == nil || *req.Amount <= 0 {
		writeError(h.logger, w, r, NewInvalidRequestError("amount must be a positive number"))
		return
	}
	if req.AddedBy == nil {
		writeError(h.logger, w, r, NewInvalidRequestError("addedBy is required"))
		return
	}
	reason := ""
	if req.Reason != nil {
		reason = *req.Reason
	}

	player, err := h.ledger.AddPoints(r.Context(), *req.PlayerID, *req.Amount, reason, *req.AddedBy)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, response.PlayerFromModel(player))
}

// Reset handles POST /api/points/reset
func (h *PointsHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var req request.ResetPointsRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	if req.PlayerID == nil {
		writeError(h.logger, w, r, NewInvalidRequestError("playerId is required"))
		return
	}
	if req.AddedBy == nil {
		writeError(h.logger, w, r, NewInvalidRequestError("addedBy is required"))
		return
	}

	player, err := h.ledger.ResetPoints(r.Context(), *req.PlayerID, *req.AddedBy)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, response.PlayerFromModel(player))
}

// Set handles POST /api/points/set
func (h *PointsHandler) Set(w http.ResponseWriter, r *http.Request) {
	var req request.SetPointsRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	if req.PlayerID == nil {
		writeError(h.logger, w, r, NewInvalidRequestError("playerId is required"))
		return
	}
	if req.Points == nil || *req.Points < 0 {
		writeError(h.logger, w, r, NewInvalidRequestError("points must be a non-negative number"))
		return
	}
	if req.AddedBy == nil {
		writeError(h.logger, w, r, NewInvalidRequestError("addedBy is required"))
		return
	}

	player, err := h.ledger.SetPoints(r.Context(), *req.PlayerID, *req.Points, *req.AddedBy)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, response.PlayerFromModel(player))
}
