package token

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/mcoot/powerup-ledger/internal/dependencies/clock"
	"github.com/mcoot/powerup-ledger/internal/dependencies/random"
	"github.com/mcoot/powerup-ledger/internal/model"
	"github.com/mcoot/powerup-ledger/internal/storage"
)

var tracer = otel.Tracer("github.com/mcoot/powerup-ledger/internal/services/token")

// Errors
var (
	ErrFaucetDisabled = errors.New("faucet is disabled")
)

// TransferRequest moves Amount base units from From to To, signed by Authority
type TransferRequest struct {
	From      model.AccountID
	To        model.AccountID
	Authority model.Authority
	Amount    uint64
	Memo      string
}

// Config holds configuration for the ledger
type Config struct {
	FaucetEnabled bool
	// FaucetMax caps a single airdrop, in base units
	FaucetMax uint64
}

// DefaultConfig returns default ledger configuration
func DefaultConfig() Config {
	return Config{
		FaucetEnabled: true,
		FaucetMax:     100 * Unit,
	}
}

// Ledger keeps token balances and performs transfers between accounts
type Ledger struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger
	cfg     Config
}

// New creates a new Ledger
func New(storage storage.Storage, clock clock.Clock, random random.Random, logger *slog.Logger, cfg Config) *Ledger {
	return &Ledger{
		storage: storage,
		clock:   clock,
		random:  random,
		logger:  logger,
		cfg:     cfg,
	}
}

// Transfer debits From and credits To inside the caller's unit of work.
// Nothing is written unless every check passes, and nothing becomes visible
// unless the caller's unit commits. Failures are *model.TransferError.
func (l *Ledger) Transfer(ctx context.Context, tx storage.Tx, req TransferRequest) (*model.TransferReceipt, error) {
	ctx, span := tracer.Start(ctx, "token.Transfer")
	defer span.End()
	span.SetAttributes(
		attribute.String("from", string(req.From)),
		attribute.String("to", string(req.To)),
		attribute.String("amount", FormatUnits(req.Amount)),
	)

	receipt, err := l.transfer(ctx, tx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return receipt, nil
}

func (l *Ledger) transfer(ctx context.Context, tx storage.Tx, req TransferRequest) (*model.TransferReceipt, error) {
	if req.Amount == 0 {
		return nil, model.NewTransferError(model.ErrInvalidAmount)
	}

	from, err := tx.GetAccount(ctx, req.From)
	if err != nil {
		return nil, transferFailure(err)
	}
	to, err := tx.GetAccount(ctx, req.To)
	if err != nil {
		return nil, transferFailure(err)
	}

	if from.Owner != req.Authority {
		return nil, model.NewTransferError(model.ErrOwnerMismatch)
	}
	if from.Frozen || to.Frozen {
		return nil, model.NewTransferError(model.ErrAccountFrozen)
	}
	if from.Balance < req.Amount {
		return nil, model.NewTransferError(model.ErrInsufficientFunds)
	}

	if from.ID == to.ID {
		// Self-transfer moves nothing but still leaves a receipt
		to = from
	} else {
		if to.Balance > math.MaxUint64-req.Amount {
			return nil, model.NewTransferError(model.ErrInvalidAmount)
		}
		from.Balance -= req.Amount
		to.Balance += req.Amount
		if err := tx.UpdateAccount(ctx, from); err != nil {
			return nil, err
		}
		if err := tx.UpdateAccount(ctx, to); err != nil {
			return nil, err
		}
	}

	receipt := &model.TransferReceipt{
		ID:        uuid.NewString(),
		From:      from.ID,
		To:        to.ID,
		Authority: req.Authority,
		Amount:    req.Amount,
		Memo:      req.Memo,
		CreatedAt: l.clock.Now(),
	}
	if err := tx.AppendTransfer(ctx, receipt); err != nil {
		return nil, err
	}
	return receipt, nil
}

// transferFailure wraps domain failures; infrastructure errors pass through untouched
func transferFailure(err error) error {
	if errors.Is(err, model.ErrAccountNotFound) {
		return model.NewTransferError(err)
	}
	return err
}

// OpenAccount creates an empty account owned by owner
func (l *Ledger) OpenAccount(ctx context.Context, owner model.Authority) (*model.TokenAccount, error) {
	acct := &model.TokenAccount{
		ID:        model.AccountID("acct_" + l.random.ID(16)),
		Owner:     owner,
		CreatedAt: l.clock.Now(),
	}

	err := l.storage.Atomically(ctx, func(tx storage.Tx) error {
		return tx.InsertAccount(ctx, acct)
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("account opened",
		slog.String("account_id", string(acct.ID)),
		slog.String("owner", string(acct.Owner)),
	)
	return acct, nil
}

// EnsureAccount creates the account if it does not exist and returns it
func (l *Ledger) EnsureAccount(ctx context.Context, id model.AccountID, owner model.Authority) (*model.TokenAccount, error) {
	var acct *model.TokenAccount
	err := l.storage.Atomically(ctx, func(tx storage.Tx) error {
		existing, err := tx.GetAccount(ctx, id)
		if err == nil {
			acct = existing
			return nil
		}
		if !errors.Is(err, model.ErrAccountNotFound) {
			return err
		}
		acct = &model.TokenAccount{ID: id, Owner: owner, CreatedAt: l.clock.Now()}
		return tx.InsertAccount(ctx, acct)
	})
	if err != nil {
		return nil, err
	}
	return acct, nil
}

// GetAccount returns an account by id
func (l *Ledger) GetAccount(ctx context.Context, id model.AccountID) (*model.TokenAccount, error) {
	return l.storage.GetAccount(ctx, id)
}

// History returns the newest receipts touching an account
func (l *Ledger) History(ctx context.Context, id model.AccountID, limit int) ([]*model.TransferReceipt, error) {
	if _, err := l.storage.GetAccount(ctx, id); err != nil {
		return nil, err
	}
	return l.storage.ListTransfers(ctx, id, limit)
}

// Mint credits new tokens to an account
func (l *Ledger) Mint(ctx context.Context, id model.AccountID, amount uint64) (*model.TokenAccount, error) {
	return l.credit(ctx, id, "", amount, "mint")
}

// Airdrop is the faucet: the owner of an account may credit it with up to
// FaucetMax base units per call.
func (l *Ledger) Airdrop(ctx context.Context, id model.AccountID, authority model.Authority, amount uint64) (*model.TokenAccount, error) {
	if !l.cfg.FaucetEnabled {
		return nil, ErrFaucetDisabled
	}
	if amount > l.cfg.FaucetMax {
		return nil, fmt.Errorf("%w: airdrop above faucet limit %s", model.ErrInvalidAmount, FormatUnits(l.cfg.FaucetMax))
	}
	return l.credit(ctx, id, authority, amount, "airdrop")
}

func (l *Ledger) credit(ctx context.Context, id model.AccountID, authority model.Authority, amount uint64, memo string) (*model.TokenAccount, error) {
	if amount == 0 {
		return nil, model.ErrInvalidAmount
	}

	var acct *model.TokenAccount
	err := l.storage.Atomically(ctx, func(tx storage.Tx) error {
		a, err := tx.GetAccount(ctx, id)
		if err != nil {
			return err
		}
		if authority != "" && a.Owner != authority {
			return model.ErrOwnerMismatch
		}
		if a.Balance > math.MaxUint64-amount {
			return model.ErrInvalidAmount
		}
		a.Balance += amount
		if err := tx.UpdateAccount(ctx, a); err != nil {
			return err
		}
		acct = a
		return tx.AppendTransfer(ctx, &model.TransferReceipt{
			ID:        uuid.NewString(),
			To:        id,
			Authority: authority,
			Amount:    amount,
			Memo:      memo,
			CreatedAt: l.clock.Now(),
		})
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("tokens credited",
		slog.String("account_id", string(id)),
		slog.Uint64("amount", amount),
		slog.String("memo", memo),
	)
	return acct, nil
}

// SetFrozen freezes or thaws an account
func (l *Ledger) SetFrozen(ctx context.Context, id model.AccountID, frozen bool) error {
	return l.storage.Atomically(ctx, func(tx storage.Tx) error {
		acct, err := tx.GetAccount(ctx, id)
		if err != nil {
			return err
		}
		acct.Frozen = frozen
		return tx.UpdateAccount(ctx, acct)
	})
}
