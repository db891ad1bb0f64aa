// Package storagetest holds the behavioral contract every storage backend must satisfy.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/pointsbot/internal/model"
	"github.com/mcoot/pointsbot/internal/storage"
)

// Suite runs the storage contract against the backend returned by New.
// Embed it or pass it directly to suite.Run.
type Suite struct {
	suite.Suite
	New func(t *testing.T) storage.Storage

	Store storage.Storage
	Ctx   context.Context
}

var baseTime = time.Date(2025, 3, 14, 18, 30, 0, 0, time.UTC)

func (s *Suite) SetupTest() {
	s.Require().NotNil(s.New, "storagetest.Suite requires New")
	s.Store = s.New(s.T())
	s.Ctx = context.Background()
}

func (s *Suite) TearDownTest() {
	if s.Store != nil {
		_ = s.Store.Close()
	}
}

func (s *Suite) createPlayer(discordID, username string, points int) *model.Player {
	p := &model.Player{
		DiscordID:   discordID,
		Username:    username,
		Points:      points,
		LastUpdated: baseTime,
	}
	s.Require().NoError(s.Store.CreatePlayer(s.Ctx, p))
	return p
}

// Player tests

func (s *Suite) TestCreateAndGetPlayer() {
	p := s.createPlayer("123456789012345678", "Gandalf", 0)
	s.NotZero(p.ID)

	byID, err := s.Store.GetPlayer(s.Ctx, p.ID)
	s.Require().NoError(err)
	s.Equal("Gandalf", byID.Username)
	s.Equal("123456789012345678", byID.DiscordID)
	s.Equal(0, byID.Points)
	s.True(baseTime.Equal(byID.LastUpdated))

	byDiscord, err := s.Store.GetPlayerByDiscordID(s.Ctx, "123456789012345678")
	s.Require().NoError(err)
	s.Equal(p.ID, byDiscord.ID)
}

func (s *Suite) TestCreatePlayerAssignsDistinctIDs() {
	a := s.createPlayer("1", "Aragorn", 20)
	b := s.createPlayer("2", "Legolas", 18)
	s.NotEqual(a.ID, b.ID)
	s.Less(a.ID, b.ID)
}

func (s *Suite) TestCreateDuplicatePlayer() {
	s.createPlayer("1", "Gimli", 16)

	err := s.Store.CreatePlayer(s.Ctx, &model.Player{DiscordID: "1", Username: "Other", LastUpdated: baseTime})
	s.ErrorIs(err, model.ErrDuplicatePlayer)

	players, err := s.Store.ListPlayers(s.Ctx)
	s.Require().NoError(err)
	s.Len(players, 1)
	s.Equal("Gimli", players[0].Username)
}

func (s *Suite) TestGetPlayerNotFound() {
	_, err := s.Store.GetPlayer(s.Ctx, 999)
	s.ErrorIs(err, model.ErrPlayerNotFound)

	_, err = s.Store.GetPlayerByDiscordID(s.Ctx, "nobody")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *Suite) TestListPlayersInInsertionOrder() {
	players, err := s.Store.ListPlayers(s.Ctx)
	s.Require().NoError(err)
	s.Empty(players)

	s.createPlayer("1", "Frodo", 14)
	s.createPlayer("2", "Samwise", 12)
	s.createPlayer("3", "Boromir", 10)

	players, err = s.Store.ListPlayers(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(players, 3)
	s.Equal("Frodo", players[0].Username)
	s.Equal("Samwise", players[1].Username)
	s.Equal("Boromir", players[2].Username)
}

func (s *Suite) TestUpdatePlayer() {
	p := s.createPlayer("1", "Pippin", 8)

	later := baseTime.Add(time.Hour)
	p.Points = -3
	p.Username = "Peregrin"
	p.LastUpdated = later
	s.Require().NoError(s.Store.UpdatePlayer(s.Ctx, p))

	got, err := s.Store.GetPlayer(s.Ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(-3, got.Points)
	s.Equal("Peregrin", got.Username)
	s.True(later.Equal(got.LastUpdated))
}

func (s *Suite) TestUpdatePlayerKeepsDiscordID() {
	p := s.createPlayer("1", "Merry", 7)
	p.DiscordID = "changed"
	s.Require().NoError(s.Store.UpdatePlayer(s.Ctx, p))

	got, err := s.Store.GetPlayerByDiscordID(s.Ctx, "1")
	s.Require().NoError(err)
	s.Equal(p.ID, got.ID)
}

func (s *Suite) TestUpdatePlayerNotFound() {
	err := s.Store.UpdatePlayer(s.Ctx, &model.Player{ID: 42, DiscordID: "x", LastUpdated: baseTime})
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *Suite) TestReturnedPlayersAreCopies() {
	p := s.createPlayer("1", "Sauron", 0)

	got, err := s.Store.GetPlayer(s.Ctx, p.ID)
	s.Require().NoError(err)
	got.Points = 1000

	again, err := s.Store.GetPlayer(s.Ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(0, again.Points)
}

// History tests

// award applies a points change to p and records it, the way the ledger does
func (s *Suite) award(p *model.Player, amount int, reason string, at time.Time) *model.HistoryEntry {
	p.Points += amount
	p.LastUpdated = at
	e := &model.HistoryEntry{PlayerID: p.ID, Amount: amount, Reason: reason, Timestamp: at, AddedBy: "DM"}
	s.Require().NoError(s.Store.ApplyMutation(s.Ctx, p, e))
	return e
}

func (s *Suite) TestApplyMutationAndListHistory() {
	gandalf := s.createPlayer("1", "Gandalf", 0)
	aragorn := s.createPlayer("2", "Aragorn", 0)

	first := s.award(gandalf, 5, "Solved the riddle", baseTime)
	second := s.award(aragorn, 10, "Led the charge", baseTime.Add(time.Minute))
	s.award(gandalf, -15, model.ReasonReset, baseTime.Add(2*time.Minute))
	s.NotZero(first.ID)
	s.NotEqual(first.ID, second.ID)

	all, err := s.Store.ListHistory(s.Ctx, storage.HistoryFilter{})
	s.Require().NoError(err)
	s.Len(all, 3)

	forGandalf, err := s.Store.ListHistory(s.Ctx, storage.ForPlayer(gandalf.ID))
	s.Require().NoError(err)
	s.Require().Len(forGandalf, 2)
	s.Equal(5, forGandalf[0].Amount)
	s.Equal("Solved the riddle", forGandalf[0].Reason)
	s.Equal("DM", forGandalf[0].AddedBy)
	s.True(baseTime.Equal(forGandalf[0].Timestamp))
	s.Equal(-15, forGandalf[1].Amount)
	s.Equal(-10, model.SumAmounts(forGandalf))

	got, err := s.Store.GetPlayer(s.Ctx, gandalf.ID)
	s.Require().NoError(err)
	s.Equal(-10, got.Points)
	s.True(baseTime.Add(2 * time.Minute).Equal(got.LastUpdated))
}

func (s *Suite) TestApplyMutationEmptyReason() {
	p := s.createPlayer("1", "Legolas", 0)
	s.award(p, 3, "", baseTime)

	entries, err := s.Store.ListHistory(s.Ctx, storage.ForPlayer(p.ID))
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal("", entries[0].Reason)
}

func (s *Suite) TestApplyMutationKeepsDiscordID() {
	p := s.createPlayer("1", "Merry", 7)
	p.DiscordID = "changed"
	s.award(p, 1, "Rohan alliance", baseTime)

	got, err := s.Store.GetPlayerByDiscordID(s.Ctx, "1")
	s.Require().NoError(err)
	s.Equal(8, got.Points)
}

func (s *Suite) TestApplyMutationUnknownPlayer() {
	err := s.Store.ApplyMutation(s.Ctx,
		&model.Player{ID: 404, DiscordID: "x", Points: 1, LastUpdated: baseTime},
		&model.HistoryEntry{PlayerID: 404, Amount: 1, Timestamp: baseTime, AddedBy: "DM"},
	)
	s.ErrorIs(err, model.ErrPlayerNotFound)

	all, err := s.Store.ListHistory(s.Ctx, storage.HistoryFilter{})
	s.Require().NoError(err)
	s.Empty(all)
}

// A history write that fails must not leave the points change behind
func (s *Suite) TestApplyMutationFailedHistoryLeavesPlayerUntouched() {
	p := s.createPlayer("1", "Boromir", 10)

	changed := p.Clone()
	changed.Points = 50
	changed.LastUpdated = baseTime.Add(time.Hour)
	err := s.Store.ApplyMutation(s.Ctx, changed, &model.HistoryEntry{
		PlayerID: 404, Amount: 40, Timestamp: baseTime.Add(time.Hour), AddedBy: "DM",
	})
	s.Require().Error(err)

	got, err := s.Store.GetPlayer(s.Ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(10, got.Points)
	s.True(baseTime.Equal(got.LastUpdated))

	all, err := s.Store.ListHistory(s.Ctx, storage.HistoryFilter{})
	s.Require().NoError(err)
	s.Empty(all)
}

func (s *Suite) TestListHistoryForPlayerWithoutEntries() {
	p := s.createPlayer("1", "Boromir", 10)
	entries, err := s.Store.ListHistory(s.Ctx, storage.ForPlayer(p.ID))
	s.Require().NoError(err)
	s.Empty(entries)
}

// Settings tests

func (s *Suite) TestSettingsDefaultToZero() {
	settings, err := s.Store.GetSettings(s.Ctx)
	s.Require().NoError(err)
	s.Equal(model.Settings{}, settings)
}

func (s *Suite) TestSaveAndGetSettings() {
	s.Require().NoError(s.Store.SaveSettings(s.Ctx, model.Settings{Prefix: "?", DMRole: "Game Master"}))
	settings, err := s.Store.GetSettings(s.Ctx)
	s.Require().NoError(err)
	s.Equal("?", settings.Prefix)
	s.Equal("Game Master", settings.DMRole)

	s.Require().NoError(s.Store.SaveSettings(s.Ctx, model.Settings{Prefix: "$", DMRole: "Game Master"}))
	settings, err = s.Store.GetSettings(s.Ctx)
	s.Require().NoError(err)
	s.Equal("$", settings.Prefix)
}

// RunSuite runs the contract against newStore
func RunSuite(t *testing.T, newStore func(t *testing.T) storage.Storage) {
	suite.Run(t, &Suite{New: newStore})
}
