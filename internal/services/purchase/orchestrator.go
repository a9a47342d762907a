// Package purchase sells catalog power-ups to players for tokens.
package purchase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mcoot/powerup-ledger/internal/catalog"
	"github.com/mcoot/powerup-ledger/internal/dependencies/clock"
	"github.com/mcoot/powerup-ledger/internal/events"
	"github.com/mcoot/powerup-ledger/internal/model"
	"github.com/mcoot/powerup-ledger/internal/services/token"
	"github.com/mcoot/powerup-ledger/internal/storage"
)

var tracer = otel.Tracer("github.com/mcoot/powerup-ledger/internal/services/purchase")

// ErrTreasuryMismatch is returned when a request names a treasury other than the configured one
var ErrTreasuryMismatch = errors.New("treasury account does not match")

// ErrFundingRequired is returned when a request for a known power-up names no funding account
var ErrFundingRequired = errors.New("funding account is required")

// Transferer moves tokens inside an open unit of work
type Transferer interface {
	Transfer(ctx context.Context, tx storage.Tx, req token.TransferRequest) (*model.TransferReceipt, error)
}

// Request is one purchase attempt. Treasury may be left empty to use the
// configured treasury.
type Request struct {
	PlayerID  model.PlayerID
	PowerUp   model.PowerUpID
	Authority model.Authority
	Funding   model.AccountID
	Treasury  model.AccountID
}

// Result describes a committed purchase
type Result struct {
	Player  *model.PlayerRecord
	Receipt *model.TransferReceipt
	Price   uint64
}

// Config holds configuration for the orchestrator
type Config struct {
	Treasury model.AccountID
}

// Orchestrator prices, pays for and grants power-ups as one atomic unit
type Orchestrator struct {
	storage   storage.Storage
	catalog   *catalog.Catalog
	transfers Transferer
	clock     clock.Clock
	publisher events.Publisher
	logger    *slog.Logger
	cfg       Config
}

// New creates a new Orchestrator
func New(
	storage storage.Storage,
	catalog *catalog.Catalog,
	transfers Transferer,
	clock clock.Clock,
	publisher events.Publisher,
	logger *slog.Logger,
	cfg Config,
) *Orchestrator {
	return &Orchestrator{
		storage:   storage,
		catalog:   catalog,
		transfers: transfers,
		clock:     clock,
		publisher: publisher,
		logger:    logger,
		cfg:       cfg,
	}
}

// BuyPowerUp charges the catalog price from req.Funding to the treasury and
// sets the player's power-up to expire catalog.EffectDuration from now.
// Either the payment and the grant both land, or neither does.
func (o *Orchestrator) BuyPowerUp(ctx context.Context, req Request) (*Result, error) {
	ctx, span := tracer.Start(ctx, "purchase.BuyPowerUp", trace.WithAttributes(
		attribute.String("player_id", string(req.PlayerID)),
		attribute.String("power_up", string(req.PowerUp)),
	))
	defer span.End()

	res, err := o.buy(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.logger.Warn("power-up purchase failed",
			slog.String("player_id", string(req.PlayerID)),
			slog.String("power_up", string(req.PowerUp)),
			slog.String("funding_account", string(req.Funding)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	o.logger.Info("power-up purchased",
		slog.String("player_id", string(req.PlayerID)),
		slog.String("power_up", string(req.PowerUp)),
		slog.Uint64("amount", res.Price),
		slog.Int64("expires_at", res.Player.PowerUpExpires()),
		slog.String("receipt_id", res.Receipt.ID),
	)
	o.publisher.Publish(model.Event{
		Type:      model.EventPowerUpPurchased,
		Timestamp: o.clock.Now(),
		PlayerID:  req.PlayerID,
		Attributes: map[string]string{
			"power_up":   string(req.PowerUp),
			"expires_at": strconv.FormatInt(res.Player.PowerUpExpires(), 10),
			"price":      strconv.FormatUint(res.Price, 10),
			"receipt_id": res.Receipt.ID,
		},
	})
	return res, nil
}

func (o *Orchestrator) buy(ctx context.Context, req Request) (*Result, error) {
	price, err := o.catalog.PriceOf(req.PowerUp)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrInvalidPowerUp, err)
	}
	if req.Funding == "" {
		return nil, ErrFundingRequired
	}

	treasury := req.Treasury
	if treasury == "" {
		treasury = o.cfg.Treasury
	}
	if o.cfg.Treasury != "" && treasury != o.cfg.Treasury {
		return nil, fmt.Errorf("%w: %q", ErrTreasuryMismatch, treasury)
	}

	var res *Result
	err = o.storage.Atomically(ctx, func(tx storage.Tx) error {
		rec, err := tx.GetPlayer(ctx, req.PlayerID)
		if err != nil {
			return err
		}

		receipt, err := o.transfers.Transfer(ctx, tx, token.TransferRequest{
			From:      req.Funding,
			To:        treasury,
			Authority: req.Authority,
			Amount:    price,
			Memo:      string(req.PowerUp),
		})
		if err != nil {
			return err
		}

		expiresAt := clock.Deadline(o.clock, catalog.EffectDuration)
		rec.SetPowerUp(req.PowerUp, expiresAt)
		if err := tx.UpdatePlayer(ctx, rec); err != nil {
			return err
		}

		res = &Result{Player: rec, Receipt: receipt, Price: price}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
