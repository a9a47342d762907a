package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mcoot/powerup-ledger/internal/model"
	"github.com/mcoot/powerup-ledger/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	players       map[model.PlayerID]*model.PlayerRecord
	accounts      map[model.AccountID]*model.TokenAccount
	transfers     []*model.TransferReceipt // commit order
	signers       map[model.Authority]*model.Signer
	usernameIndex map[string]model.Authority
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		players:       make(map[model.PlayerID]*model.PlayerRecord),
		accounts:      make(map[model.AccountID]*model.TokenAccount),
		signers:       make(map[model.Authority]*model.Signer),
		usernameIndex: make(map[string]model.Authority),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Atomically holds the write lock for the whole unit and applies staged
// writes only once fn has succeeded.
func (s *Storage) Atomically(ctx context.Context, fn func(tx storage.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memTx{
		s:        s,
		players:  make(map[model.PlayerID]*model.PlayerRecord),
		accounts: make(map[model.AccountID]*model.TokenAccount),
	}
	if err := fn(tx); err != nil {
		return err
	}

	for id, rec := range tx.players {
		s.players[id] = rec
	}
	for id, acct := range tx.accounts {
		s.accounts[id] = acct
	}
	s.transfers = append(s.transfers, tx.transfers...)
	return nil
}

func (s *Storage) Close() error {
	return nil
}

// Player reads

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.PlayerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.players[id]
	if !ok {
		return nil, model.ErrRecordNotFound
	}
	return rec.Clone(), nil
}

func (s *Storage) TopPlayers(ctx context.Context, limit int) ([]*model.PlayerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]*model.PlayerRecord, 0, len(s.players))
	for _, rec := range s.players {
		recs = append(recs, rec.Clone())
	}
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].PlayerID < recs[j].PlayerID
	})
	if limit >= 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

// Token account reads

func (s *Storage) GetAccount(ctx context.Context, id model.AccountID) (*model.TokenAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acct, ok := s.accounts[id]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	return acct.Clone(), nil
}

func (s *Storage) ListTransfers(ctx context.Context, id model.AccountID, limit int) ([]*model.TransferReceipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var receipts []*model.TransferReceipt
	for i := len(s.transfers) - 1; i >= 0 && len(receipts) < limit; i-- {
		r := s.transfers[i]
		if r.From == id || r.To == id {
			c := *r
			receipts = append(receipts, &c)
		}
	}
	return receipts, nil
}

// Signer operations

func (s *Storage) SaveSigner(ctx context.Context, signer *model.Signer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if owner, ok := s.usernameIndex[signer.Username]; ok && owner != signer.ID {
		return model.ErrAlreadyExists
	}
	if prev, ok := s.signers[signer.ID]; ok && prev.Username != signer.Username {
		delete(s.usernameIndex, prev.Username)
	}
	c := *signer
	s.signers[signer.ID] = &c
	s.usernameIndex[signer.Username] = signer.ID
	return nil
}

func (s *Storage) GetSigner(ctx context.Context, id model.Authority) (*model.Signer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	signer, ok := s.signers[id]
	if !ok {
		return nil, model.ErrSignerNotFound
	}
	c := *signer
	return &c, nil
}

func (s *Storage) GetSignerByUsername(ctx context.Context, username string) (*model.Signer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.usernameIndex[username]
	if !ok {
		return nil, model.ErrSignerNotFound
	}
	signer, ok := s.signers[id]
	if !ok {
		return nil, model.ErrSignerNotFound
	}
	c := *signer
	return &c, nil
}

// memTx stages writes on top of the committed maps. The caller already holds s.mu.
type memTx struct {
	s         *Storage
	players   map[model.PlayerID]*model.PlayerRecord
	accounts  map[model.AccountID]*model.TokenAccount
	transfers []*model.TransferReceipt
}

func (tx *memTx) player(id model.PlayerID) (*model.PlayerRecord, bool) {
	if rec, ok := tx.players[id]; ok {
		return rec, true
	}
	rec, ok := tx.s.players[id]
	return rec, ok
}

func (tx *memTx) account(id model.AccountID) (*model.TokenAccount, bool) {
	if acct, ok := tx.accounts[id]; ok {
		return acct, true
	}
	acct, ok := tx.s.accounts[id]
	return acct, ok
}

func (tx *memTx) GetPlayer(ctx context.Context, id model.PlayerID) (*model.PlayerRecord, error) {
	rec, ok := tx.player(id)
	if !ok {
		return nil, model.ErrRecordNotFound
	}
	return rec.Clone(), nil
}

func (tx *memTx) InsertPlayer(ctx context.Context, rec *model.PlayerRecord) error {
	if _, ok := tx.player(rec.PlayerID); ok {
		return model.ErrAlreadyExists
	}
	tx.players[rec.PlayerID] = rec.Clone()
	return nil
}

func (tx *memTx) UpdatePlayer(ctx context.Context, rec *model.PlayerRecord) error {
	if _, ok := tx.player(rec.PlayerID); !ok {
		return model.ErrRecordNotFound
	}
	tx.players[rec.PlayerID] = rec.Clone()
	return nil
}

func (tx *memTx) GetAccount(ctx context.Context, id model.AccountID) (*model.TokenAccount, error) {
	acct, ok := tx.account(id)
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	return acct.Clone(), nil
}

func (tx *memTx) InsertAccount(ctx context.Context, acct *model.TokenAccount) error {
	if _, ok := tx.account(acct.ID); ok {
		return model.ErrAlreadyExists
	}
	tx.accounts[acct.ID] = acct.Clone()
	return nil
}

func (tx *memTx) UpdateAccount(ctx context.Context, acct *model.TokenAccount) error {
	if _, ok := tx.account(acct.ID); !ok {
		return model.ErrAccountNotFound
	}
	tx.accounts[acct.ID] = acct.Clone()
	return nil
}

func (tx *memTx) AppendTransfer(ctx context.Context, receipt *model.TransferReceipt) error {
	c := *receipt
	tx.transfers = append(tx.transfers, &c)
	return nil
}
