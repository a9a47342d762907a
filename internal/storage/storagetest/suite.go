// Package storagetest holds the behaviour every storage backend must share.
package storagetest

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/powerup-ledger/internal/model"
	"github.com/mcoot/powerup-ledger/internal/storage"
)

// Suite runs the storage contract against a backend built by NewStorage
type Suite struct {
	suite.Suite

	// NewStorage returns an empty backend for each test
	NewStorage func() storage.Storage

	Storage storage.Storage
	ctx     context.Context
}

var errAbort = errors.New("abort")

func (s *Suite) SetupTest() {
	s.Storage = s.NewStorage()
	s.ctx = context.Background()
}

func (s *Suite) TearDownTest() {
	if s.Storage != nil {
		_ = s.Storage.Close()
	}
}

func (s *Suite) insertPlayer(rec *model.PlayerRecord) {
	err := s.Storage.Atomically(s.ctx, func(tx storage.Tx) error {
		return tx.InsertPlayer(s.ctx, rec)
	})
	s.Require().NoError(err)
}

func (s *Suite) insertAccount(acct *model.TokenAccount) {
	err := s.Storage.Atomically(s.ctx, func(tx storage.Tx) error {
		return tx.InsertAccount(s.ctx, acct)
	})
	s.Require().NoError(err)
}

// Player tests

func (s *Suite) TestInsertAndGetPlayer() {
	rec := &model.PlayerRecord{PlayerID: "alice", Score: 12}
	rec.SetPowerUp("speedBoost", 1_700_000_008)
	s.insertPlayer(rec)

	got, err := s.Storage.GetPlayer(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(rec, got)
}

func (s *Suite) TestGetPlayerNotFound() {
	_, err := s.Storage.GetPlayer(s.ctx, "nobody")
	s.ErrorIs(err, model.ErrRecordNotFound)
}

func (s *Suite) TestInsertPlayerTwiceFails() {
	s.insertPlayer(&model.PlayerRecord{PlayerID: "alice"})

	err := s.Storage.Atomically(s.ctx, func(tx storage.Tx) error {
		return tx.InsertPlayer(s.ctx, &model.PlayerRecord{PlayerID: "alice", Score: 99})
	})
	s.ErrorIs(err, model.ErrAlreadyExists)

	got, err := s.Storage.GetPlayer(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(uint64(0), got.Score)
}

func (s *Suite) TestUpdateMissingPlayerFails() {
	err := s.Storage.Atomically(s.ctx, func(tx storage.Tx) error {
		return tx.UpdatePlayer(s.ctx, &model.PlayerRecord{PlayerID: "ghost"})
	})
	s.ErrorIs(err, model.ErrRecordNotFound)
}

func (s *Suite) TestFullScoreRangeRoundTrips() {
	s.insertPlayer(&model.PlayerRecord{PlayerID: "max", Score: math.MaxUint64})

	got, err := s.Storage.GetPlayer(s.ctx, "max")
	s.Require().NoError(err)
	s.Equal(uint64(math.MaxUint64), got.Score)
}

func (s *Suite) TestTopPlayersOrdersByScore() {
	s.insertPlayer(&model.PlayerRecord{PlayerID: "low", Score: 1})
	s.insertPlayer(&model.PlayerRecord{PlayerID: "huge", Score: math.MaxUint64})
	s.insertPlayer(&model.PlayerRecord{PlayerID: "mid", Score: 500})
	s.insertPlayer(&model.PlayerRecord{PlayerID: "zero", Score: 0})

	top, err := s.Storage.TopPlayers(s.ctx, 3)
	s.Require().NoError(err)
	s.Require().Len(top, 3)
	s.Equal(model.PlayerID("huge"), top[0].PlayerID)
	s.Equal(model.PlayerID("mid"), top[1].PlayerID)
	s.Equal(model.PlayerID("low"), top[2].PlayerID)
}

func (s *Suite) TestTopPlayersSeparatesNeighbouringLargeScores() {
	s.insertPlayer(&model.PlayerRecord{PlayerID: "d", Score: 5})
	s.insertPlayer(&model.PlayerRecord{PlayerID: "b", Score: math.MaxUint64 - 1000})
	s.insertPlayer(&model.PlayerRecord{PlayerID: "c", Score: 5})
	s.insertPlayer(&model.PlayerRecord{PlayerID: "a", Score: math.MaxUint64})

	top, err := s.Storage.TopPlayers(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(top, 4)
	ids := make([]model.PlayerID, len(top))
	for i, rec := range top {
		ids[i] = rec.PlayerID
	}
	s.Equal([]model.PlayerID{"a", "b", "c", "d"}, ids)
}

func (s *Suite) TestTopPlayersReflectsScoreUpdates() {
	s.insertPlayer(&model.PlayerRecord{PlayerID: "a", Score: 10})
	s.insertPlayer(&model.PlayerRecord{PlayerID: "b", Score: 20})

	err := s.Storage.Atomically(s.ctx, func(tx storage.Tx) error {
		rec, err := tx.GetPlayer(s.ctx, "a")
		if err != nil {
			return err
		}
		rec.SetScore(30)
		return tx.UpdatePlayer(s.ctx, rec)
	})
	s.Require().NoError(err)

	top, err := s.Storage.TopPlayers(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(top, 2)
	s.Equal(model.PlayerID("a"), top[0].PlayerID)
}

// Atomicity tests

func (s *Suite) TestFailedUnitLeavesNoTrace() {
	s.insertPlayer(&model.PlayerRecord{PlayerID: "alice", Score: 5})
	s.insertAccount(&model.TokenAccount{ID: "acct-1", Owner: "alice", Balance: 100})

	err := s.Storage.Atomically(s.ctx, func(tx storage.Tx) error {
		rec, err := tx.GetPlayer(s.ctx, "alice")
		if err != nil {
			return err
		}
		rec.SetScore(6)
		rec.SetPowerUp("speedBoost", 123)
		if err := tx.UpdatePlayer(s.ctx, rec); err != nil {
			return err
		}
		acct, err := tx.GetAccount(s.ctx, "acct-1")
		if err != nil {
			return err
		}
		acct.Balance = 0
		if err := tx.UpdateAccount(s.ctx, acct); err != nil {
			return err
		}
		if err := tx.AppendTransfer(s.ctx, &model.TransferReceipt{ID: "r1", From: "acct-1", To: "acct-1", Amount: 1}); err != nil {
			return err
		}
		return errAbort
	})
	s.ErrorIs(err, errAbort)

	rec, err := s.Storage.GetPlayer(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(uint64(5), rec.Score)
	s.Nil(rec.PowerUp)

	acct, err := s.Storage.GetAccount(s.ctx, "acct-1")
	s.Require().NoError(err)
	s.Equal(uint64(100), acct.Balance)

	receipts, err := s.Storage.ListTransfers(s.ctx, "acct-1", 10)
	s.Require().NoError(err)
	s.Empty(receipts)
}

func (s *Suite) TestUnitReadsItsOwnWrites() {
	err := s.Storage.Atomically(s.ctx, func(tx storage.Tx) error {
		if err := tx.InsertPlayer(s.ctx, &model.PlayerRecord{PlayerID: "bob"}); err != nil {
			return err
		}
		rec, err := tx.GetPlayer(s.ctx, "bob")
		if err != nil {
			return err
		}
		rec.SetScore(7)
		if err := tx.UpdatePlayer(s.ctx, rec); err != nil {
			return err
		}
		again, err := tx.GetPlayer(s.ctx, "bob")
		if err != nil {
			return err
		}
		s.Equal(uint64(7), again.Score)
		return nil
	})
	s.Require().NoError(err)

	rec, err := s.Storage.GetPlayer(s.ctx, "bob")
	s.Require().NoError(err)
	s.Equal(uint64(7), rec.Score)
}

func (s *Suite) TestReturnedRecordsAreCopies() {
	s.insertPlayer(&model.PlayerRecord{PlayerID: "alice", Score: 1})

	rec, err := s.Storage.GetPlayer(s.ctx, "alice")
	s.Require().NoError(err)
	rec.SetScore(1000)

	again, err := s.Storage.GetPlayer(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(uint64(1), again.Score)
}

// Account tests

func (s *Suite) TestInsertAndGetAccount() {
	created := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.insertAccount(&model.TokenAccount{ID: "acct-1", Owner: "alice", Balance: 42, Frozen: true, CreatedAt: created})

	acct, err := s.Storage.GetAccount(s.ctx, "acct-1")
	s.Require().NoError(err)
	s.Equal(model.Authority("alice"), acct.Owner)
	s.Equal(uint64(42), acct.Balance)
	s.True(acct.Frozen)
	s.True(created.Equal(acct.CreatedAt))
}

func (s *Suite) TestGetAccountNotFound() {
	_, err := s.Storage.GetAccount(s.ctx, "missing")
	s.ErrorIs(err, model.ErrAccountNotFound)
}

func (s *Suite) TestInsertAccountTwiceFails() {
	s.insertAccount(&model.TokenAccount{ID: "acct-1", Owner: "alice"})

	err := s.Storage.Atomically(s.ctx, func(tx storage.Tx) error {
		return tx.InsertAccount(s.ctx, &model.TokenAccount{ID: "acct-1", Owner: "mallory"})
	})
	s.ErrorIs(err, model.ErrAlreadyExists)
}

func (s *Suite) TestUpdateMissingAccountFails() {
	err := s.Storage.Atomically(s.ctx, func(tx storage.Tx) error {
		return tx.UpdateAccount(s.ctx, &model.TokenAccount{ID: "missing"})
	})
	s.ErrorIs(err, model.ErrAccountNotFound)
}

func (s *Suite) TestListTransfersNewestFirst() {
	s.insertAccount(&model.TokenAccount{ID: "a", Owner: "alice"})
	s.insertAccount(&model.TokenAccount{ID: "b", Owner: "bob"})
	s.insertAccount(&model.TokenAccount{ID: "c", Owner: "carol"})

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	receipts := []*model.TransferReceipt{
		{ID: "t1", From: "a", To: "b", Authority: "alice", Amount: 1, CreatedAt: base},
		{ID: "t2", From: "b", To: "c", Authority: "bob", Amount: 2, CreatedAt: base.Add(time.Second)},
		{ID: "t3", From: "a", To: "c", Authority: "alice", Amount: 3, Memo: "gift", CreatedAt: base.Add(2 * time.Second)},
	}
	for _, r := range receipts {
		err := s.Storage.Atomically(s.ctx, func(tx storage.Tx) error {
			return tx.AppendTransfer(s.ctx, r)
		})
		s.Require().NoError(err)
	}

	got, err := s.Storage.ListTransfers(s.ctx, "a", 10)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal("t3", got[0].ID)
	s.Equal("gift", got[0].Memo)
	s.Equal(uint64(3), got[0].Amount)
	s.Equal("t1", got[1].ID)

	got, err = s.Storage.ListTransfers(s.ctx, "c", 1)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal("t3", got[0].ID)
}

// Signer tests

func (s *Suite) TestSaveAndGetSigner() {
	signer := &model.Signer{
		ID:           "sig_1",
		Username:     "alice",
		PasswordHash: "hash",
		CreatedAt:    time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	s.Require().NoError(s.Storage.SaveSigner(s.ctx, signer))

	got, err := s.Storage.GetSigner(s.ctx, "sig_1")
	s.Require().NoError(err)
	s.Equal("alice", got.Username)
	s.Equal("hash", got.PasswordHash)

	got, err = s.Storage.GetSignerByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.Authority("sig_1"), got.ID)
}

func (s *Suite) TestSaveSignerRejectsTakenUsername() {
	created := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	first := &model.Signer{ID: "sig_1", Username: "alice", PasswordHash: "hash", CreatedAt: created}
	s.Require().NoError(s.Storage.SaveSigner(s.ctx, first))

	err := s.Storage.SaveSigner(s.ctx, &model.Signer{ID: "sig_2", Username: "alice", PasswordHash: "other", CreatedAt: created})
	s.ErrorIs(err, model.ErrAlreadyExists)

	got, err := s.Storage.GetSignerByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.Authority("sig_1"), got.ID)
	s.Equal("hash", got.PasswordHash)

	_, err = s.Storage.GetSigner(s.ctx, "sig_2")
	s.ErrorIs(err, model.ErrSignerNotFound)

	// Re-saving the same signer is fine
	first.PasswordHash = "rotated"
	s.Require().NoError(s.Storage.SaveSigner(s.ctx, first))
}

func (s *Suite) TestSignerNotFound() {
	_, err := s.Storage.GetSigner(s.ctx, "nobody")
	s.ErrorIs(err, model.ErrSignerNotFound)

	_, err = s.Storage.GetSignerByUsername(s.ctx, "nobody")
	s.ErrorIs(err, model.ErrSignerNotFound)
}
