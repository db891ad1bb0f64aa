package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/pointsbot/internal/middleware"
	"github.com/mcoot/pointsbot/internal/web/templates/layout"
	"github.com/mcoot/pointsbot/internal/web/templates/pages"
)

// Recovery renders the error page, quoting the request id, when a dashboard handler panics
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, func(w http.ResponseWriter, r *http.Request, _ any) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)

		page := pages.Error(layout.PageData{Title: "Error"}, middleware.GetRequestID(r.Context()))
		if err := page.Render(r.Context(), w); err != nil {
			logger.Error("render error page", slog.String("error", err.Error()))
		}
	})
}
