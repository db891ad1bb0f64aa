package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/pointsbot/internal/api"
	"github.com/mcoot/pointsbot/internal/factory"
	"github.com/mcoot/pointsbot/internal/testutil"
)

func testFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := NewRootCmd().PersistentFlags()
	require.NoError(t, flags.Parse(args))
	return flags
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	loaded, err := LoadConfig(testFlags(t))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", loaded.ServerURL)
	assert.Equal(t, "text", loaded.Output)
	assert.Empty(t, loaded.Token)
}

func TestLoadConfigPrecedence(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	err := os.WriteFile(filepath.Join(home, ".plctl.yaml"), []byte("server: http://file:1\ntoken: from-file\noutput: json\n"), 0o600)
	require.NoError(t, err)

	loaded, err := LoadConfig(testFlags(t))
	require.NoError(t, err)
	assert.Equal(t, "http://file:1", loaded.ServerURL)
	assert.Equal(t, "from-file", loaded.Token)
	assert.Equal(t, "json", loaded.Output)

	t.Setenv("PLCTL_SERVER", "http://env:2")
	loaded, err = LoadConfig(testFlags(t))
	require.NoError(t, err)
	assert.Equal(t, "http://env:2", loaded.ServerURL)

	loaded, err = LoadConfig(testFlags(t, "--server", "http://flag:3"))
	require.NoError(t, err)
	assert.Equal(t, "http://flag:3", loaded.ServerURL)
	assert.Equal(t, "from-file", loaded.Token)
}

func TestLoadConfigExplicitFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("no-color: true\n"), 0o600))

	loaded, err := LoadConfig(testFlags(t, "--config", path))
	require.NoError(t, err)
	assert.True(t, loaded.NoColor)

	_, err = LoadConfig(testFlags(t, "--config", filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Error(t, err)
}

func TestLoadConfigRejectsUnknownOutput(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := LoadConfig(testFlags(t, "-o", "xml"))
	assert.ErrorContains(t, err, "invalid output format")
}

func TestReadEvents(t *testing.T) {
	stream := "retry: 3000\nevent: connected\ndata: {\"status\":\"connected\"}\n\n" +
		": keepalive\n\n" +
		"event: rankings-update\ndata: <div>\ndata: </div>\n\n"

	var events, data []string
	err := readEvents(strings.NewReader(stream), func(event, d string) {
		events = append(events, event)
		data = append(data, d)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"connected", "rankings-update"}, events)
	assert.Equal(t, "<div>\n</div>", data[1])
}

func TestOutputText(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	out := NewOutput("text", &buf)
	out.Print(Ranking{
		Page: 1, TotalPages: 1, TotalPlayers: 2,
		Entries: []RankedPlayer{
			{Rank: 1, Marker: "🥇", Player: Player{Username: "Gandalf", Points: 25}},
			{Rank: 2, Marker: "🥈", Player: Player{Username: "Aragorn", Points: 20}},
		},
	})
	assert.Contains(t, buf.String(), "D&D Campaign Rankings (Page 1/1)")
	assert.Contains(t, buf.String(), "Gandalf")

	buf.Reset()
	out.Print(Ranking{Page: 1})
	assert.Contains(t, buf.String(), "No players have earned PL yet.")

	buf.Reset()
	out.Print([]HistoryEntry{{PlayerID: 1, Amount: -3, AddedBy: "DM", Timestamp: time.Now()}})
	assert.Contains(t, buf.String(), "-3 PL")
	assert.Contains(t, buf.String(), "no reason")
}

func TestOutputJSON(t *testing.T) {
	var buf bytes.Buffer
	NewOutput("json", &buf).Print(HealthResult{Status: "ok", Storage: "memory", LatencyMs: 3})
	assert.JSONEq(t, `{"status":"ok","storage":"memory","latencyMs":3}`, buf.String())
}

func newAPIServer(t *testing.T) (*httptest.Server, *factory.TestApp) {
	t.Helper()
	app := factory.NewTestApp()
	t.Cleanup(func() { _ = app.Close() })

	srv := httptest.NewServer(api.NewRouter(api.RouterConfig{
		Logger:        testutil.NopLogger(),
		AuthService:   app.AuthService,
		LedgerService: app.Ledger,
		QueryService:  app.Query,
		HubManager:    app.HubManager,
		StorageType:   app.StorageType,
	}))
	t.Cleanup(srv.Close)
	return srv, app
}

func TestClientAPIError(t *testing.T) {
	srv, _ := newAPIServer(t)
	c := NewClient(srv.URL, "")

	err := c.Get(context.Background(), "/api/players/99", &Player{})
	require.Error(t, err)
	assert.True(t, IsAPIError(err, "PLAYER_NOT_FOUND"))
	assert.Contains(t, err.Error(), "Player not found")
}

func TestSeed(t *testing.T) {
	srv, app := newAPIServer(t)
	c := NewClient(srv.URL, "")
	ctx := context.Background()

	result, err := seed(ctx, c, "DM", func(string) {})
	require.NoError(t, err)
	assert.Len(t, result.Created, 10)
	assert.Empty(t, result.Skipped)
	assert.Equal(t, 15, result.Awards)

	gandalf, err := app.Ledger.GetPlayerByDiscordID(ctx, "123456789012345678")
	require.NoError(t, err)
	assert.Equal(t, 25, gandalf.Points)

	sauron, err := app.Ledger.GetPlayerByDiscordID(ctx, "023456789012345678")
	require.NoError(t, err)
	assert.Equal(t, 0, sauron.Points)

	// a second run changes nothing
	result, err = seed(ctx, c, "DM", func(string) {})
	require.NoError(t, err)
	assert.Empty(t, result.Created)
	assert.Len(t, result.Skipped, 10)

	gandalf, err = app.Ledger.GetPlayerByDiscordID(ctx, "123456789012345678")
	require.NoError(t, err)
	assert.Equal(t, 25, gandalf.Points)
}
