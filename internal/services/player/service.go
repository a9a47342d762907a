// Package player owns creation and score updates of player records.
package player

import (
	"context"
	"log/slog"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mcoot/powerup-ledger/internal/dependencies/clock"
	"github.com/mcoot/powerup-ledger/internal/events"
	"github.com/mcoot/powerup-ledger/internal/model"
	"github.com/mcoot/powerup-ledger/internal/storage"
)

var tracer = otel.Tracer("github.com/mcoot/powerup-ledger/internal/services/player")

// Leaderboard bounds
const (
	DefaultLeaderboardSize = 10
	MaxLeaderboardSize     = 100
)

// Service handles player record lifecycle
type Service struct {
	storage   storage.Storage
	clock     clock.Clock
	publisher events.Publisher
	logger    *slog.Logger
}

// New creates a new player Service
func New(storage storage.Storage, clock clock.Clock, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		storage:   storage,
		clock:     clock,
		publisher: publisher,
		logger:    logger,
	}
}

// InitializePlayer creates a fresh record with score 0 and no power-up
func (s *Service) InitializePlayer(ctx context.Context, id model.PlayerID) (*model.PlayerRecord, error) {
	ctx, span := tracer.Start(ctx, "player.InitializePlayer",
		trace.WithAttributes(attribute.String("player_id", string(id))))
	defer span.End()

	rec, err := model.NewPlayerRecord(id)
	if err != nil {
		return nil, fail(span, err)
	}

	err = s.storage.Atomically(ctx, func(tx storage.Tx) error {
		return tx.InsertPlayer(ctx, rec)
	})
	if err != nil {
		return nil, fail(span, err)
	}

	s.logger.Info("player initialized", slog.String("player_id", string(id)))
	s.publisher.Publish(model.Event{
		Type:      model.EventPlayerInitialized,
		Timestamp: s.clock.Now(),
		PlayerID:  id,
	})
	return rec, nil
}

// UpdateScore overwrites the score. Any value is accepted, including decreases.
func (s *Service) UpdateScore(ctx context.Context, id model.PlayerID, score uint64) (*model.PlayerRecord, error) {
	ctx, span := tracer.Start(ctx, "player.UpdateScore",
		trace.WithAttributes(attribute.String("player_id", string(id))))
	defer span.End()

	var updated *model.PlayerRecord
	err := s.storage.Atomically(ctx, func(tx storage.Tx) error {
		rec, err := tx.GetPlayer(ctx, id)
		if err != nil {
			return err
		}
		rec.SetScore(score)
		updated = rec
		return tx.UpdatePlayer(ctx, rec)
	})
	if err != nil {
		return nil, fail(span, err)
	}

	s.logger.Info("score updated",
		slog.String("player_id", string(id)),
		slog.Uint64("score", score),
	)
	s.publisher.Publish(model.Event{
		Type:       model.EventScoreUpdated,
		Timestamp:  s.clock.Now(),
		PlayerID:   id,
		Attributes: map[string]string{"score": strconv.FormatUint(score, 10)},
	})
	return updated, nil
}

// GetPlayer returns the current record
func (s *Service) GetPlayer(ctx context.Context, id model.PlayerID) (*model.PlayerRecord, error) {
	return s.storage.GetPlayer(ctx, id)
}

// Leaderboard returns the highest scores, DefaultLeaderboardSize when limit is not positive
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]*model.PlayerRecord, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardSize
	}
	if limit > MaxLeaderboardSize {
		limit = MaxLeaderboardSize
	}
	return s.storage.TopPlayers(ctx, limit)
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
