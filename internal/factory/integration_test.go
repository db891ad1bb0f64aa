package factory

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/pointsbot/internal/model"
	"github.com/mcoot/pointsbot/internal/services/auth"
	"github.com/mcoot/pointsbot/internal/services/commands"
	redisstorage "github.com/mcoot/pointsbot/internal/storage/redis"
	"github.com/mcoot/pointsbot/internal/web/sse"
)

// chatRecorder is a conversation that collects replies and confirms prompts
type chatRecorder struct {
	mu      sync.Mutex
	replies []commands.Reply
}

func (c *chatRecorder) Reply(ctx context.Context, reply commands.Reply) (commands.MessageRef, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies = append(c.replies, reply)
	return commands.MessageRef{ChannelID: "c1", MessageID: "m1"}, nil
}

func (c *chatRecorder) AwaitReaction(ctx context.Context, ref commands.MessageRef, userID string, options []string, timeout time.Duration) (string, error) {
	return commands.ReactionConfirm, nil
}

func (c *chatRecorder) last() commands.Reply {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.replies[len(c.replies)-1]
}

type IntegrationSuite struct {
	suite.Suite
	app  *TestApp
	ctx  context.Context
	chat *chatRecorder
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
	s.chat = &chatRecorder{}
}

func (s *IntegrationSuite) TearDownTest() {
	s.Require().NoError(s.app.Close())
}

func (s *IntegrationSuite) send(author commands.User, evidence model.PermissionEvidence, content string, mentions ...commands.User) {
	err := s.app.CommandRouter.HandleMessage(s.ctx, s.chat, commands.Message{
		ID:        "in",
		ChannelID: "c1",
		Content:   content,
		Author:    author,
		Mentions:  mentions,
		Evidence:  evidence,
	})
	s.Require().NoError(err)
}

// Test: chat commands flow through ledger, query and settings storage
func (s *IntegrationSuite) TestChatToLedgerFlow() {
	dm := commands.User{ID: "1", Username: "DungeonMaster"}
	dmEvidence := model.PermissionEvidence{RoleNames: []string{model.DefaultDMRole}}
	gandalf := commands.User{ID: "42", Username: "Gandalf"}

	s.send(dm, dmEvidence, "!addpoints <@42> 5 riddle", gandalf)
	s.app.MockClock.Advance(time.Hour)
	s.send(dm, dmEvidence, "!addpoints <@42> 10 Balrog", gandalf)

	player, err := s.app.Ledger.GetPlayerByDiscordID(s.ctx, "42")
	s.Require().NoError(err)
	s.Equal(15, player.Points)

	stats, err := s.app.Query.PlayerStats(s.ctx, player.ID, 0)
	s.Require().NoError(err)
	s.Equal(1, stats.Rank)
	s.Require().Len(stats.History, 2)
	s.Equal("Balrog", stats.History[0].Reason)
	s.Equal(15, model.SumAmounts(stats.History))

	s.send(gandalf, model.PermissionEvidence{}, "!rankings")
	s.Contains(s.chat.last().Text, "🥇 <@42> - 15 PL")
}

// Test: settings changed via chat persist in storage and change the prefix
func (s *IntegrationSuite) TestPrefixChangePersists() {
	admin := commands.User{ID: "9", Username: "Admin"}
	adminEvidence := model.PermissionEvidence{Administrator: true}

	s.send(admin, adminEvidence, "!setprefix ?")

	stored, err := s.app.Storage.GetSettings(s.ctx)
	s.Require().NoError(err)
	s.Equal("?", stored.Prefix)

	s.send(admin, adminEvidence, "?help")
	s.Require().NotNil(s.chat.last().Embed)
}

// Test: ledger events reach SSE clients through the broadcaster
func (s *IntegrationSuite) TestLedgerEventsReachSSE() {
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	s.app.Start(ctx)

	hub := s.app.HubManager.GetOrCreateHub(sse.TopicLedger)
	received := make(chan string, 8)
	client := sse.NewClient(hub, "test")
	hub.Register(client)
	go func() {
		for msg := range client.Messages() {
			received <- string(msg)
		}
	}()
	time.Sleep(10 * time.Millisecond)

	_, err := s.app.Ledger.CreatePlayer(s.ctx, "7", "Frodo", 3)
	s.Require().NoError(err)

	deadline := time.After(time.Second)
	var got []string
	for len(got) < 2 {
		select {
		case msg := <-received:
			got = append(got, msg)
		case <-deadline:
			s.FailNow("timed out waiting for SSE messages", "got %v", got)
		}
	}
	s.True(strings.HasPrefix(got[0], "event: player_created"))
	s.Contains(got[1], "@Frodo")
}

// Test: resetall through chat zeroes every player
func (s *IntegrationSuite) TestResetAllThroughChat() {
	for i, name := range []string{"Aragorn", "Legolas", "Gimli"} {
		_, err := s.app.Ledger.CreatePlayer(s.ctx, string(rune('a'+i)), name, 10*(i+1))
		s.Require().NoError(err)
	}

	s.send(commands.User{ID: "9", Username: "Admin"}, model.PermissionEvidence{Administrator: true}, "!resetall")
	s.Equal("Reset PL for all 3 players.", s.chat.last().Text)

	players, err := s.app.Ledger.ListPlayers(s.ctx)
	s.Require().NoError(err)
	for _, p := range players {
		s.Equal(0, p.Points)
	}
}

type FactorySuite struct {
	suite.Suite
}

func TestFactorySuite(t *testing.T) {
	suite.Run(t, new(FactorySuite))
}

func (s *FactorySuite) TestDefaultsToMemory() {
	app, err := New(context.Background(), Config{})
	s.Require().NoError(err)
	defer app.Close()

	s.Equal(StorageTypeMemory, app.StorageType)
	s.False(app.AuthService.Enabled())
}

func (s *FactorySuite) TestSQLite() {
	path := filepath.Join(s.T().TempDir(), "points.db")
	app, err := New(context.Background(), Config{StorageType: StorageTypeSQLite, SQLitePath: path})
	s.Require().NoError(err)
	defer app.Close()

	_, err = app.Ledger.CreatePlayer(context.Background(), "1", "Sam", 0)
	s.NoError(err)
	s.Equal(StorageTypeSQLite, app.StorageType)
}

func (s *FactorySuite) TestRedis() {
	mr := miniredis.RunT(s.T())
	cfg := redisstorage.DefaultConfig()
	cfg.URL = "redis://" + mr.Addr()

	app, err := New(context.Background(), Config{StorageType: StorageTypeRedis, RedisConfig: &cfg})
	s.Require().NoError(err)
	defer app.Close()

	_, err = app.Ledger.CreatePlayer(context.Background(), "1", "Sam", 0)
	s.NoError(err)
}

func (s *FactorySuite) TestMissingBackendConfig() {
	for _, storageType := range []string{StorageTypeSQLite, StorageTypePostgres, StorageTypeRedis} {
		_, err := New(context.Background(), Config{StorageType: storageType})
		s.Error(err, storageType)
	}
}

func (s *FactorySuite) TestInvalidStorageType() {
	_, err := New(context.Background(), Config{StorageType: "floppy"})
	s.ErrorContains(err, "invalid StorageType")
}

func (s *FactorySuite) TestInvalidTokenHash() {
	_, err := New(context.Background(), Config{AuthConfig: auth.Config{TokenHash: "nope"}})
	s.Error(err)
}

func (s *FactorySuite) TestCommandDefaultsFilled() {
	cfg := withCommandDefaults(commands.Config{Defaults: model.Settings{Prefix: "$"}})
	s.Equal("$", cfg.Defaults.Prefix)
	s.Equal(model.DefaultDMRole, cfg.Defaults.DMRole)
	s.Equal(5*time.Minute, cfg.PendingResetTTL)
	s.Equal(30*time.Second, cfg.ResetAllTimeout)
	s.Equal(5, cfg.StatsHistoryLimit)
	s.False(cfg.Locale.IsZero())
}
