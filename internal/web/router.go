package web

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/pointsbot/internal/dependencies/clock"
	"github.com/mcoot/pointsbot/internal/services/ledger"
	"github.com/mcoot/pointsbot/internal/services/query"
	"github.com/mcoot/pointsbot/internal/web/handler"
	"github.com/mcoot/pointsbot/internal/web/middleware"
)

// RouterConfig holds configuration for the web router
type RouterConfig struct {
	Logger        *slog.Logger
	LedgerService *ledger.Service
	QueryService  *query.Service
	Clock         clock.Clock
	Locale        query.Locale
	StaticDir     string // Path to static files directory
}

// NewRouter creates a new web router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	Mount(r, cfg)
	return r
}

// Mount registers the dashboard pages on r. Mount the API first so /api
// routes take precedence.
func Mount(r *mux.Router, cfg RouterConfig) {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.New()
	}
	locale := cfg.Locale
	if locale.IsZero() {
		locale = query.DefaultLocale
	}

	dashboardHandler := handler.NewDashboardHandler(cfg.LedgerService, cfg.QueryService, clk, locale, cfg.Logger)

	pages := r.NewRoute().Subrouter()
	pages.Use(middleware.Recovery(cfg.Logger))
	pages.Use(middleware.RequestID())
	pages.Use(middleware.Logging(cfg.Logger))

	// Static files
	if cfg.StaticDir != "" {
		staticHandler := http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir)))
		pages.PathPrefix("/static/").Handler(staticHandler)
	}

	pages.HandleFunc("/", dashboardHandler.Leaderboard).Methods(http.MethodGet)
	pages.HandleFunc("/players/{id}", dashboardHandler.Player).Methods(http.MethodGet)
	pages.HandleFunc("/players/{id}/history", dashboardHandler.PlayerHistory).Methods(http.MethodGet)
}
