package e2e_test

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/pointsbot/internal/api"
	"github.com/mcoot/pointsbot/internal/factory"
	"github.com/mcoot/pointsbot/internal/services/auth"
	"github.com/mcoot/pointsbot/internal/testutil"
	"github.com/mcoot/pointsbot/internal/web"
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
	home       string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	// Find project root (where go.mod is)
	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(t.TempDir(), "plctl-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/plctl")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
		home:       t.TempDir(),
	}
}

func (r *cliRunner) run(args ...string) (string, error) {
	return r.runWithToken("", args...)
}

func (r *cliRunner) runWithToken(token string, args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--output", "json",
	}, args...)
	if token != "" {
		fullArgs = append([]string{"--token", token}, fullArgs...)
	}

	cmd := exec.Command(r.binaryPath, fullArgs...)
	// isolate from any ~/.plctl.yaml on the host
	cmd.Env = append(os.Environ(), "HOME="+r.home)
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// startTestServer runs the API and dashboard on a free local port
func startTestServer(t *testing.T, cfg factory.Config) string {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	app, err := factory.New(ctx, cfg)
	require.NoError(t, err)
	app.Start(ctx)

	logger := testutil.NopLogger()
	r := mux.NewRouter()
	api.Mount(r, api.RouterConfig{
		Logger:        logger,
		AuthService:   app.AuthService,
		LedgerService: app.Ledger,
		QueryService:  app.Query,
		HubManager:    app.HubManager,
		StorageType:   app.StorageType,
	})
	web.Mount(r, web.RouterConfig{
		Logger:        logger,
		LedgerService: app.Ledger,
		QueryService:  app.Query,
		Clock:         app.Clock,
		Locale:        app.Locale,
	})

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = "127.0.0.1"
	serverConfig.Port = 0
	server := api.NewServer(r, serverConfig, logger)
	require.NoError(t, server.Listen())

	go func() {
		if err := server.Start(); err != nil {
			t.Logf("server error: %v", err)
		}
	}()

	t.Cleanup(func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = server.Shutdown(shutdownCtx)
		cancel()
		_ = app.Close()
	})

	return "http://" + server.Addr()
}

// Response types for JSON parsing
type playerResponse struct {
	ID        int64  `json:"id"`
	DiscordID string `json:"discordId"`
	Username  string `json:"username"`
	Points    int    `json:"points"`
}

type historyResponse struct {
	PlayerID int64  `json:"playerId"`
	Amount   int    `json:"amount"`
	Reason   string `json:"reason"`
	AddedBy  string `json:"addedBy"`
}

type rankingResponse struct {
	Page         int `json:"page"`
	TotalPages   int `json:"totalPages"`
	TotalPlayers int `json:"totalPlayers"`
	Entries      []struct {
		Rank   int            `json:"rank"`
		Marker string         `json:"marker"`
		Player playerResponse `json:"player"`
	} `json:"entries"`
}

type statsResponse struct {
	Player       playerResponse    `json:"player"`
	Rank         int               `json:"rank"`
	TotalPlayers int               `json:"totalPlayers"`
	History      []historyResponse `json:"history"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
}

type seedResponse struct {
	Created []string `json:"created"`
	Skipped []string `json:"skipped"`
	Awards  int      `json:"awards"`
}

// Tests

func TestCLI_HealthCheck(t *testing.T) {
	url := startTestServer(t, factory.Config{})
	cli := newCLIRunner(t, url)

	output, err := cli.run("health")
	require.NoError(t, err, "output: %s", output)

	var resp healthResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "memory", resp.Storage)
}

func TestCLI_PointsFlow(t *testing.T) {
	url := startTestServer(t, factory.Config{})
	cli := newCLIRunner(t, url)

	// Create player
	output, err := cli.run("players", "create", "--discord-id", "42", "--username", "Gandalf")
	require.NoError(t, err, "output: %s", output)

	var created playerResponse
	require.NoError(t, json.Unmarshal([]byte(output), &created))
	assert.Equal(t, "Gandalf", created.Username)
	assert.Equal(t, 0, created.Points)
	id := strconv.FormatInt(created.ID, 10)

	// Award points twice
	output, err = cli.run("points", "add", id, "5", "--reason", "riddle", "--by", "DM")
	require.NoError(t, err, "output: %s", output)
	output, err = cli.run("points", "add", id, "10", "--reason", "Balrog", "--by", "DM")
	require.NoError(t, err, "output: %s", output)

	var updated playerResponse
	require.NoError(t, json.Unmarshal([]byte(output), &updated))
	assert.Equal(t, 15, updated.Points)

	// History sums to the total
	output, err = cli.run("history", "--player", id)
	require.NoError(t, err, "output: %s", output)

	var history []historyResponse
	require.NoError(t, json.Unmarshal([]byte(output), &history))
	require.Len(t, history, 2)
	sum := 0
	for _, e := range history {
		sum += e.Amount
		assert.Equal(t, "DM", e.AddedBy)
	}
	assert.Equal(t, 15, sum)

	// Set then reset
	output, err = cli.run("points", "set", id, "4")
	require.NoError(t, err, "output: %s", output)
	require.NoError(t, json.Unmarshal([]byte(output), &updated))
	assert.Equal(t, 4, updated.Points)

	output, err = cli.run("points", "reset", id)
	require.NoError(t, err, "output: %s", output)
	require.NoError(t, json.Unmarshal([]byte(output), &updated))
	assert.Equal(t, 0, updated.Points)

	// Stats show the full history newest first
	output, err = cli.run("stats", id)
	require.NoError(t, err, "output: %s", output)

	var stats statsResponse
	require.NoError(t, json.Unmarshal([]byte(output), &stats))
	assert.Equal(t, 1, stats.Rank)
	require.Len(t, stats.History, 4)
	assert.Equal(t, -4, stats.History[0].Amount)
}

func TestCLI_Validation(t *testing.T) {
	url := startTestServer(t, factory.Config{})
	cli := newCLIRunner(t, url)

	output, err := cli.run("players", "get", "99")
	assert.Error(t, err)
	assert.Contains(t, output, "PLAYER_NOT_FOUND")

	output, err = cli.run("players", "create", "--discord-id", "1", "--username", "Sam")
	require.NoError(t, err, "output: %s", output)

	output, err = cli.run("points", "add", "1", "0")
	assert.Error(t, err)
	assert.Contains(t, output, "INVALID_REQUEST")

	output, err = cli.run("points", "set", "1", "--", "-5")
	assert.Error(t, err)
	assert.Contains(t, output, "INVALID_REQUEST")
}

func TestCLI_SeedAndRankings(t *testing.T) {
	url := startTestServer(t, factory.Config{})
	cli := newCLIRunner(t, url)

	output, err := cli.run("seed")
	require.NoError(t, err, "output: %s", output)

	var seeded seedResponse
	require.NoError(t, json.Unmarshal([]byte(output), &seeded))
	assert.Len(t, seeded.Created, 10)

	output, err = cli.run("rankings")
	require.NoError(t, err, "output: %s", output)

	var ranking rankingResponse
	require.NoError(t, json.Unmarshal([]byte(output), &ranking))
	assert.Equal(t, 10, ranking.TotalPlayers)
	assert.Equal(t, 1, ranking.TotalPages)
	require.Len(t, ranking.Entries, 10)

	want := []int{25, 20, 18, 16, 14, 12, 10, 8, 7, 0}
	for i, e := range ranking.Entries {
		assert.Equal(t, i+1, e.Rank)
		assert.Equal(t, want[i], e.Player.Points, e.Player.Username)
	}
	assert.Equal(t, "Gandalf", ranking.Entries[0].Player.Username)
	assert.Equal(t, "🥇", ranking.Entries[0].Marker)

	// Reseeding skips everyone
	output, err = cli.run("seed")
	require.NoError(t, err, "output: %s", output)
	require.NoError(t, json.Unmarshal([]byte(output), &seeded))
	assert.Empty(t, seeded.Created)
	assert.Len(t, seeded.Skipped, 10)
}

func TestCLI_TokenAuth(t *testing.T) {
	const token = "table-top-secret"
	hash, err := auth.HashToken(token, bcrypt.MinCost)
	require.NoError(t, err)

	url := startTestServer(t, factory.Config{AuthConfig: auth.Config{TokenHash: hash}})
	cli := newCLIRunner(t, url)

	output, err := cli.run("players", "create", "--discord-id", "1", "--username", "Sam")
	assert.Error(t, err)
	assert.Contains(t, output, "UNAUTHORIZED")

	output, err = cli.runWithToken(token, "players", "create", "--discord-id", "1", "--username", "Sam")
	require.NoError(t, err, "output: %s", output)

	// reads need no token
	output, err = cli.run("players", "list")
	require.NoError(t, err, "output: %s", output)

	var players []playerResponse
	require.NoError(t, json.Unmarshal([]byte(output), &players))
	assert.Len(t, players, 1)
}

func TestCLI_HashToken(t *testing.T) {
	cli := newCLIRunner(t, "http://127.0.0.1:1")

	output, err := cli.run("hash-token", "s3cret", "--cost", strconv.Itoa(bcrypt.MinCost))
	require.NoError(t, err, "output: %s", output)

	var msg struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &msg))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(msg.Message), []byte("s3cret")))
}
