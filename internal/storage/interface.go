package storage

import (
	"context"

	"github.com/mcoot/powerup-ledger/internal/model"
)

// Storage defines the interface for data persistence.
//
// Player records and token accounts are only written through Atomically, so a
// unit of work either lands completely or not at all.
type Storage interface {
	// Atomically runs fn against a staged view of storage. Writes made through
	// tx become visible only if fn returns nil and the commit succeeds. Units
	// touching the same records are serialized. fn may be run more than once
	// by backends that retry on conflict, so it must not have side effects
	// outside tx.
	Atomically(ctx context.Context, fn func(tx Tx) error) error

	// Player reads
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.PlayerRecord, error)
	TopPlayers(ctx context.Context, limit int) ([]*model.PlayerRecord, error)

	// Token account reads
	GetAccount(ctx context.Context, id model.AccountID) (*model.TokenAccount, error)
	ListTransfers(ctx context.Context, id model.AccountID, limit int) ([]*model.TransferReceipt, error)

	// Signer operations

	// SaveSigner fails with model.ErrAlreadyExists if another signer holds the username
	SaveSigner(ctx context.Context, signer *model.Signer) error
	GetSigner(ctx context.Context, id model.Authority) (*model.Signer, error)
	GetSignerByUsername(ctx context.Context, username string) (*model.Signer, error)

	Close() error
}

// Tx is the staged view handed to Atomically
type Tx interface {
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.PlayerRecord, error)
	// InsertPlayer fails with model.ErrAlreadyExists if the id is taken
	InsertPlayer(ctx context.Context, rec *model.PlayerRecord) error
	// UpdatePlayer fails with model.ErrRecordNotFound if the record is missing
	UpdatePlayer(ctx context.Context, rec *model.PlayerRecord) error

	GetAccount(ctx context.Context, id model.AccountID) (*model.TokenAccount, error)
	InsertAccount(ctx context.Context, acct *model.TokenAccount) error
	UpdateAccount(ctx context.Context, acct *model.TokenAccount) error

	AppendTransfer(ctx context.Context, receipt *model.TransferReceipt) error
}
