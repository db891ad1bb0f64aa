package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/pointsbot/internal/api/apierr"
	"github.com/mcoot/pointsbot/internal/dependencies/clock"
	"github.com/mcoot/pointsbot/internal/services/auth"
	"github.com/mcoot/pointsbot/internal/testutil"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func newAuthService(t *testing.T, token string) *auth.Service {
	t.Helper()
	cfg := auth.DefaultConfig()
	if token != "" {
		hash, err := auth.HashToken(token, bcrypt.MinCost)
		require.NoError(t, err)
		cfg.TokenHash = hash
	}
	svc, err := auth.New(clock.New(), cfg, testutil.NopLogger())
	require.NoError(t, err)
	return svc
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"Bearer  abc ", "abc"},
		{"Basic abc", ""},
		{"Bearer", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, bearerToken(req))
		})
	}
}

func TestAuthRejectsMissingToken(t *testing.T) {
	h := Auth(newAuthService(t, "s3cret"))(okHandler)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/points/add", nil))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Header().Get("WWW-Authenticate"), "Bearer")
	assert.Contains(t, rr.Body.String(), apierr.CodeUnauthorized)
}

func TestAuthAcceptsValidToken(t *testing.T) {
	h := Auth(newAuthService(t, "s3cret"))(okHandler)

	req := httptest.NewRequest(http.MethodPost, "/api/points/add", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestAuthDisabledPassesEverything(t *testing.T) {
	h := Auth(newAuthService(t, ""))(okHandler)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/points/add", nil))

	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestRecoveryWritesInternalError(t *testing.T) {
	h := RequestID()(Recovery(testutil.NopLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("ledger exploded")
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/players", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusInternalServerError, rr.Code)

	var body apierr.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, apierr.CodeInternalError, body.Error.Code)
	assert.Equal(t, "Internal server error (request req-42)", body.Error.Message)
	assert.NotContains(t, rr.Body.String(), "ledger exploded")
}
