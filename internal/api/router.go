package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/pointsbot/internal/api/handler"
	"github.com/mcoot/pointsbot/internal/api/middleware"
	"github.com/mcoot/pointsbot/internal/api/response"
	"github.com/mcoot/pointsbot/internal/services/auth"
	"github.com/mcoot/pointsbot/internal/services/ledger"
	"github.com/mcoot/pointsbot/internal/services/query"
	"github.com/mcoot/pointsbot/internal/web/sse"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger        *slog.Logger
	AuthService   *auth.Service
	LedgerService *ledger.Service
	QueryService  *query.Service
	HubManager    *sse.HubManager
	// StorageType is reported by the health check
	StorageType string
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	Mount(r, cfg)
	return r
}

// Mount registers the API routes under /api on r
func Mount(r *mux.Router, cfg RouterConfig) {
	// Create handlers
	playerHandler := handler.NewPlayerHandler(cfg.LedgerService, cfg.QueryService, cfg.Logger)
	pointsHandler := handler.NewPointsHandler(cfg.LedgerService, cfg.Logger)
	eventsHandler := handler.NewEventsHandler(cfg.HubManager, cfg.Logger)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.AuthService)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)
	requestIDMiddleware := middleware.RequestID()

	// API subrouter with common middleware
	api := r.PathPrefix("/api").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(requestIDMiddleware)
	api.Use(loggingMiddleware)

	// Read routes (public)
	api.HandleFunc("/players", playerHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/players/{id}", playerHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/players/{id}/stats", playerHandler.Stats).Methods(http.MethodGet)
	api.HandleFunc("/point-history", playerHandler.History).Methods(http.MethodGet)
	api.HandleFunc("/rankings", playerHandler.Rankings).Methods(http.MethodGet)
	api.HandleFunc("/events", eventsHandler.Stream).Methods(http.MethodGet)

	// Mutating routes (token required when configured)
	mutating := api.NewRoute().Subrouter()
	mutating.Use(authMiddleware)
	mutating.HandleFunc("/players", playerHandler.Create).Methods(http.MethodPost)
	mutating.HandleFunc("/points/add", pointsHandler.Add).Methods(http.MethodPost)
	mutating.HandleFunc("/points/reset", pointsHandler.Reset).Methods(http.MethodPost)
	mutating.HandleFunc("/points/set", pointsHandler.Set).Methods(http.MethodPost)

	// Health check endpoint (no auth)
	storageType := cfg.StorageType
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, response.Health{Status: "ok", Storage: storageType})
	}).Methods(http.MethodGet)
}
