package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/pointsbot/internal/model"
	"github.com/mcoot/pointsbot/internal/services/auth"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeForbidden      = "FORBIDDEN"
	CodePlayerNotFound = "PLAYER_NOT_FOUND"
	CodePlayerExists   = "PLAYER_EXISTS"
	CodeTimeout        = "TIMEOUT"
	CodeInternalError  = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// StatusOf returns the HTTP status WriteError would use for err
func StatusOf(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	if errors.Is(err, auth.ErrMissingToken) || errors.Is(err, auth.ErrInvalidToken) {
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or missing API token"}}
	}

	switch model.KindOf(err) {
	case model.NotFoundKind:
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, "Player not found"}}
	case model.DuplicateKind:
		return &httpError{http.StatusConflict, APIError{CodePlayerExists, "Player already exists"}}
	case model.ValidationKind:
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, err.Error()}}
	case model.PermissionKind:
		return &httpError{http.StatusForbidden, APIError{CodeForbidden, "Permission denied"}}
	case model.TimeoutKind:
		return &httpError{http.StatusGatewayTimeout, APIError{CodeTimeout, "Request timed out"}}
	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewInternalError creates an internal server error. A non-empty requestID
// is quoted so operators can find the matching log line.
func NewInternalError(requestID string) error {
	msg := "Internal server error"
	if requestID != "" {
		msg += " (request " + requestID + ")"
	}
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, msg}}
}
