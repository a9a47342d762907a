package player

import (
	"context"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/powerup-ledger/internal/dependencies/mocks"
	"github.com/mcoot/powerup-ledger/internal/model"
	"github.com/mcoot/powerup-ledger/internal/storage"
	"github.com/mcoot/powerup-ledger/internal/storage/memory"
)

type ServiceSuite struct {
	suite.Suite
	storage   *memory.Storage
	clock     *mocks.MockClock
	publisher *mocks.MockPublisher
	service   *Service
	ctx       context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.publisher = mocks.NewMockPublisher()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service = New(s.storage, s.clock, s.publisher, logger)
	s.ctx = context.Background()
}

// InitializePlayer tests

func (s *ServiceSuite) TestInitializePlayerCreatesFreshRecord() {
	rec, err := s.service.InitializePlayer(s.ctx, "alice")
	s.Require().NoError(err)

	s.Equal(model.PlayerID("alice"), rec.PlayerID)
	s.Equal(uint64(0), rec.Score)
	s.Nil(rec.PowerUp)
	s.Equal(int64(0), rec.PowerUpExpires())

	stored, err := s.service.GetPlayer(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(rec, stored)
}

func (s *ServiceSuite) TestInitializePlayerTwiceFails() {
	_, err := s.service.InitializePlayer(s.ctx, "alice")
	s.Require().NoError(err)
	_, err = s.service.UpdateScore(s.ctx, "alice", 42)
	s.Require().NoError(err)

	_, err = s.service.InitializePlayer(s.ctx, "alice")
	s.ErrorIs(err, model.ErrAlreadyExists)

	rec, err := s.service.GetPlayer(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(uint64(42), rec.Score)
}

func (s *ServiceSuite) TestInitializePlayerRejectsBadIDs() {
	_, err := s.service.InitializePlayer(s.ctx, "")
	s.ErrorIs(err, model.ErrInvalidPlayerID)

	_, err = s.service.InitializePlayer(s.ctx, model.PlayerID(strings.Repeat("x", model.MaxPlayerIDLen+1)))
	s.ErrorIs(err, model.ErrInvalidPlayerID)

	s.Empty(s.publisher.Events())
}

func (s *ServiceSuite) TestInitializePlayerPublishesEvent() {
	_, err := s.service.InitializePlayer(s.ctx, "alice")
	s.Require().NoError(err)

	events := s.publisher.Events()
	s.Require().Len(events, 1)
	s.Equal(model.EventPlayerInitialized, events[0].Type)
	s.Equal(model.PlayerID("alice"), events[0].PlayerID)
	s.Equal(s.clock.Now(), events[0].Timestamp)
}

// UpdateScore tests

func (s *ServiceSuite) TestUpdateScoreOverwrites() {
	_, err := s.service.InitializePlayer(s.ctx, "alice")
	s.Require().NoError(err)

	rec, err := s.service.UpdateScore(s.ctx, "alice", 500)
	s.Require().NoError(err)
	s.Equal(uint64(500), rec.Score)

	// Decreases are accepted
	rec, err = s.service.UpdateScore(s.ctx, "alice", 3)
	s.Require().NoError(err)
	s.Equal(uint64(3), rec.Score)

	rec, err = s.service.UpdateScore(s.ctx, "alice", math.MaxUint64)
	s.Require().NoError(err)
	s.Equal(uint64(math.MaxUint64), rec.Score)

	rec, err = s.service.UpdateScore(s.ctx, "alice", 0)
	s.Require().NoError(err)
	s.Equal(uint64(0), rec.Score)

	stored, err := s.service.GetPlayer(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(uint64(0), stored.Score)
}

func (s *ServiceSuite) TestUpdateScoreKeepsPowerUp() {
	_, err := s.service.InitializePlayer(s.ctx, "alice")
	s.Require().NoError(err)

	s.Require().NoError(s.storage.Atomically(s.ctx, func(tx storage.Tx) error {
		rec, err := tx.GetPlayer(s.ctx, "alice")
		if err != nil {
			return err
		}
		rec.SetPowerUp("speedBoost", 1_704_110_408)
		return tx.UpdatePlayer(s.ctx, rec)
	}))

	rec, err := s.service.UpdateScore(s.ctx, "alice", 7)
	s.Require().NoError(err)
	s.Require().NotNil(rec.PowerUp)
	s.Equal(int64(1_704_110_408), rec.PowerUpExpires())
}

func (s *ServiceSuite) TestUpdateScoreMissingPlayer() {
	_, err := s.service.UpdateScore(s.ctx, "ghost", 1)
	s.ErrorIs(err, model.ErrRecordNotFound)
	s.Empty(s.publisher.Events())
}

func (s *ServiceSuite) TestUpdateScorePublishesEvent() {
	_, err := s.service.InitializePlayer(s.ctx, "alice")
	s.Require().NoError(err)
	_, err = s.service.UpdateScore(s.ctx, "alice", 99)
	s.Require().NoError(err)

	events := s.publisher.Events()
	s.Require().Len(events, 2)
	s.Equal(model.EventScoreUpdated, events[1].Type)
	s.Equal("99", events[1].Attributes["score"])
}

// Leaderboard tests

func (s *ServiceSuite) TestLeaderboard() {
	scores := map[model.PlayerID]uint64{"a": 5, "b": 50, "c": 500}
	for id, score := range scores {
		_, err := s.service.InitializePlayer(s.ctx, id)
		s.Require().NoError(err)
		_, err = s.service.UpdateScore(s.ctx, id, score)
		s.Require().NoError(err)
	}

	top, err := s.service.Leaderboard(s.ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(top, 2)
	s.Equal(model.PlayerID("c"), top[0].PlayerID)
	s.Equal(model.PlayerID("b"), top[1].PlayerID)

	top, err = s.service.Leaderboard(s.ctx, 0)
	s.Require().NoError(err)
	s.Len(top, 3)
}
