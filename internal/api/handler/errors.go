package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mcoot/pointsbot/internal/api/apierr"
	"github.com/mcoot/pointsbot/internal/middleware"
)

// maxBodyBytes caps request bodies; every request type is a few small fields
const maxBodyBytes = 64 << 10

// writeError writes an error response. Server-side failures are logged with
// the underlying error, and a plain 500 quotes the request id to the client.
func writeError(logger *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	status := apierr.StatusOf(err)
	if status < http.StatusInternalServerError {
		apierr.WriteError(w, err)
		return
	}

	requestID := middleware.GetRequestID(r.Context())
	logger.Error("request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.String("request_id", requestID),
		slog.String("error", err.Error()),
	)
	if status == http.StatusInternalServerError {
		err = apierr.NewInternalError(requestID)
	}
	apierr.WriteError(w, err)
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return apierr.NewInvalidRequestError(message)
}

// decodeBody reads one JSON object from the request body into dst
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return NewInvalidRequestError("request body too large")
		}
		return NewInvalidRequestError("invalid request body")
	}
	return nil
}
