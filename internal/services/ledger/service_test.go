package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/pointsbot/internal/dependencies/mocks"
	"github.com/mcoot/pointsbot/internal/model"
	"github.com/mcoot/pointsbot/internal/storage"
	"github.com/mcoot/pointsbot/internal/storage/memory"
	"github.com/mcoot/pointsbot/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	service *Service
	events  []model.Event
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.service = New(s.storage, s.clock, testutil.NopLogger())
	s.events = nil
	s.service.Subscribe(func(e model.Event) {
		s.events = append(s.events, e)
	})
	s.ctx = context.Background()
}

func (s *ServiceSuite) createPlayer(discordID, name string, points int) *model.Player {
	p, err := s.service.CreatePlayer(s.ctx, discordID, name, points)
	s.Require().NoError(err)
	return p
}

func (s *ServiceSuite) history(id model.PlayerID) []*model.HistoryEntry {
	entries, err := s.service.GetHistory(s.ctx, &id)
	s.Require().NoError(err)
	return entries
}

// CreatePlayer tests

func (s *ServiceSuite) TestCreatePlayer() {
	p := s.createPlayer("123", "Gandalf", 0)
	s.Equal("Gandalf", p.Username)
	s.Equal(0, p.Points)
	s.Equal(s.clock.Now(), p.LastUpdated)

	s.Require().Len(s.events, 1)
	s.Equal(model.EventPlayerCreated, s.events[0].Type)
}

func (s *ServiceSuite) TestCreatePlayerWithInitialPoints() {
	p := s.createPlayer("123", "Gandalf", 25)
	s.Equal(25, p.Points)
	s.Empty(s.history(p.ID))
}

func (s *ServiceSuite) TestCreatePlayerDuplicate() {
	s.createPlayer("123", "Gandalf", 0)
	_, err := s.service.CreatePlayer(s.ctx, "123", "Mithrandir", 0)
	s.ErrorIs(err, model.ErrDuplicatePlayer)
	s.Equal(model.DuplicateKind, model.KindOf(err))
}

func (s *ServiceSuite) TestCreatePlayerValidation() {
	_, err := s.service.CreatePlayer(s.ctx, "", "Gandalf", 0)
	s.ErrorIs(err, model.ErrInvalidArgument)

	_, err = s.service.CreatePlayer(s.ctx, "123", "  ", 0)
	s.ErrorIs(err, model.ErrInvalidArgument)
}

// EnsurePlayer tests

func (s *ServiceSuite) TestEnsurePlayerCreatesUnseen() {
	p, err := s.service.EnsurePlayer(s.ctx, "555", "Frodo")
	s.Require().NoError(err)
	s.Equal(0, p.Points)

	again, err := s.service.EnsurePlayer(s.ctx, "555", "Frodo")
	s.Require().NoError(err)
	s.Equal(p.ID, again.ID)

	players, err := s.service.ListPlayers(s.ctx)
	s.Require().NoError(err)
	s.Len(players, 1)
}

func (s *ServiceSuite) TestEnsurePlayerRefreshesUsername() {
	p := s.createPlayer("555", "Frodo", 14)

	got, err := s.service.EnsurePlayer(s.ctx, "555", "Mr. Underhill")
	s.Require().NoError(err)
	s.Equal("Mr. Underhill", got.Username)
	s.Equal(14, got.Points)

	stored, err := s.service.GetPlayer(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal("Mr. Underhill", stored.Username)
}

// AddPoints tests

func (s *ServiceSuite) TestAddPoints() {
	p := s.createPlayer("123", "Aragorn", 20)
	s.clock.Advance(time.Hour)

	updated, err := s.service.AddPoints(s.ctx, p.ID, 7, "Led the charge", "DM")
	s.Require().NoError(err)
	s.Equal(27, updated.Points)
	s.Equal(s.clock.Now(), updated.LastUpdated)

	entries := s.history(p.ID)
	s.Require().Len(entries, 1)
	s.Equal(7, entries[0].Amount)
	s.Equal("Led the charge", entries[0].Reason)
	s.Equal("DM", entries[0].AddedBy)
	s.Equal(s.clock.Now(), entries[0].Timestamp)
}

func (s *ServiceSuite) TestAddPointsNotFound() {
	_, err := s.service.AddPoints(s.ctx, 99, 5, "x", "DM")
	s.ErrorIs(err, model.ErrPlayerNotFound)
	s.Equal(model.NotFoundKind, model.KindOf(err))
}

func (s *ServiceSuite) TestGandalfEndToEnd() {
	p := s.createPlayer("123456789012345678", "Gandalf", 0)

	_, err := s.service.AddPoints(s.ctx, p.ID, 5, "riddle", "DM")
	s.Require().NoError(err)
	_, err = s.service.AddPoints(s.ctx, p.ID, 10, "Balrog", "DM")
	s.Require().NoError(err)

	got, err := s.service.GetPlayer(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(15, got.Points)

	entries := s.history(p.ID)
	s.Len(entries, 2)
	s.Equal(15, model.SumAmounts(entries))
}

// ResetPoints tests

func (s *ServiceSuite) TestResetPoints() {
	for _, start := range []int{25, 0, -4} {
		p := s.createPlayer(fmt.Sprintf("id-%d", start), "Player", start)

		updated, err := s.service.ResetPoints(s.ctx, p.ID, "Admin")
		s.Require().NoError(err)
		s.Equal(0, updated.Points)

		entries := s.history(p.ID)
		s.Require().Len(entries, 1)
		s.Equal(-start, entries[0].Amount)
		s.Equal(model.ReasonReset, entries[0].Reason)
	}
}

func (s *ServiceSuite) TestResetPointsNotFound() {
	_, err := s.service.ResetPoints(s.ctx, 99, "Admin")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

// SetPoints tests

func (s *ServiceSuite) TestSetPoints() {
	p := s.createPlayer("123", "Legolas", 18)

	updated, err := s.service.SetPoints(s.ctx, p.ID, 30, "DM")
	s.Require().NoError(err)
	s.Equal(30, updated.Points)

	updated, err = s.service.SetPoints(s.ctx, p.ID, 5, "DM")
	s.Require().NoError(err)
	s.Equal(5, updated.Points)

	entries := s.history(p.ID)
	s.Require().Len(entries, 2)
	s.Equal(12, entries[0].Amount)
	s.Equal(-25, entries[1].Amount)
	s.Equal(model.ReasonManualSet, entries[1].Reason)
}

func (s *ServiceSuite) TestSetPointsNotFound() {
	_, err := s.service.SetPoints(s.ctx, 99, 1, "DM")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *ServiceSuite) TestHistoryReconstructsPoints() {
	p := s.createPlayer("123", "Gimli", 0)
	_, _ = s.service.AddPoints(s.ctx, p.ID, 9, "axe", "DM")
	_, _ = s.service.SetPoints(s.ctx, p.ID, 4, "DM")
	_, _ = s.service.AddPoints(s.ctx, p.ID, 3, "beard", "DM")
	_, _ = s.service.ResetPoints(s.ctx, p.ID, "Admin")
	_, _ = s.service.AddPoints(s.ctx, p.ID, 2, "song", "DM")

	got, err := s.service.GetPlayer(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(got.Points, model.SumAmounts(s.history(p.ID)))
}

// ResetAllPoints tests

func (s *ServiceSuite) TestResetAllPoints() {
	s.createPlayer("1", "Gandalf", 25)
	s.createPlayer("2", "Aragorn", 20)
	s.createPlayer("3", "Sauron", 0)
	s.events = nil

	count, err := s.service.ResetAllPoints(s.ctx, "Admin")
	s.Require().NoError(err)
	s.Equal(3, count)

	players, err := s.service.ListPlayers(s.ctx)
	s.Require().NoError(err)
	for _, p := range players {
		s.Equal(0, p.Points)
	}

	all, err := s.service.GetHistory(s.ctx, nil)
	s.Require().NoError(err)
	s.Len(all, 3)

	s.Require().Len(s.events, 1)
	s.Equal(model.EventAllReset, s.events[0].Type)
	s.Equal(3, s.events[0].Count)
}

func (s *ServiceSuite) TestResetAllPointsEmpty() {
	count, err := s.service.ResetAllPoints(s.ctx, "Admin")
	s.Require().NoError(err)
	s.Equal(0, count)
}

func (s *ServiceSuite) TestResetAllPointsIsNotAtomic() {
	failing := &failingStorage{Storage: s.storage, failUpdateFor: 2}
	service := New(failing, s.clock, testutil.NopLogger())

	a := s.createPlayer("1", "Gandalf", 25)
	b := s.createPlayer("2", "Aragorn", 20)
	c := s.createPlayer("3", "Legolas", 18)

	count, err := service.ResetAllPoints(s.ctx, "Admin")
	s.Error(err)
	s.Equal(1, count)

	got, _ := s.service.GetPlayer(s.ctx, a.ID)
	s.Equal(0, got.Points)
	got, _ = s.service.GetPlayer(s.ctx, b.ID)
	s.Equal(20, got.Points)
	got, _ = s.service.GetPlayer(s.ctx, c.ID)
	s.Equal(18, got.Points)
}

func (s *ServiceSuite) TestFailedWriteLeavesNoUnauditedChange() {
	p := s.createPlayer("1", "Faramir", 10)
	s.events = nil
	recorder, logger := testutil.NewLogRecorder()
	service := New(&failingStorage{Storage: s.storage, failUpdateFor: p.ID}, s.clock, logger)
	service.Subscribe(func(e model.Event) {
		s.events = append(s.events, e)
	})

	_, err := service.AddPoints(s.ctx, p.ID, 5, "Held Osgiliath", "DM")
	s.Require().Error(err)

	got, err := s.service.GetPlayer(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(10, got.Points)
	s.Empty(s.history(p.ID))
	s.Empty(s.events)

	rec := recorder.Find("failed to apply mutation")
	s.Require().NotNil(rec)
	s.Equal("connection reset", rec["error"])
}

// Concurrency tests

func (s *ServiceSuite) TestConcurrentAddsWithoutLockingKeepEveryHistoryEntry() {
	p := s.createPlayer("1", "Pippin", 0)
	barrier := &barrierStorage{Storage: s.storage}
	barrier.wg.Add(2)
	service := New(barrier, s.clock, testutil.NopLogger())

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.AddPoints(s.ctx, p.ID, 1, "second breakfast", "DM")
			s.NoError(err)
		}()
	}
	wg.Wait()

	got, err := s.service.GetPlayer(s.ctx, p.ID)
	s.Require().NoError(err)
	// both read 0 before either wrote, so one update is lost
	s.Equal(1, got.Points)
	s.Len(s.history(p.ID), 2)
}

func (s *ServiceSuite) TestConcurrentAddsWithLockingAreSerialized() {
	service := New(s.storage, s.clock, testutil.NopLogger(), WithPlayerLocking())
	p := s.createPlayer("1", "Merry", 0)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.AddPoints(s.ctx, p.ID, 1, "pipeweed", "DM")
			s.NoError(err)
		}()
	}
	wg.Wait()

	got, err := s.service.GetPlayer(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(n, got.Points)
	s.Len(s.history(p.ID), n)
	s.Equal(0, service.locks.size())
}

// failingStorage fails ApplyMutation for one player id
type failingStorage struct {
	storage.Storage
	failUpdateFor model.PlayerID
}

func (f *failingStorage) ApplyMutation(ctx context.Context, p *model.Player, e *model.HistoryEntry) error {
	if p.ID == f.failUpdateFor {
		return errors.New("connection reset")
	}
	return f.Storage.ApplyMutation(ctx, p, e)
}

// barrierStorage holds the first two GetPlayer calls until both have read
type barrierStorage struct {
	storage.Storage
	wg    sync.WaitGroup
	calls atomic.Int32
}

func (b *barrierStorage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	p, err := b.Storage.GetPlayer(ctx, id)
	if b.calls.Add(1) <= 2 {
		b.wg.Done()
		b.wg.Wait()
	}
	return p, err
}
