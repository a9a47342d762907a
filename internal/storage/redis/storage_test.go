package redis

import (
	"context"
	"math"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/powerup-ledger/internal/model"
	"github.com/mcoot/powerup-ledger/internal/storage"
	"github.com/mcoot/powerup-ledger/internal/storage/storagetest"
)

type StorageSuite struct {
	storagetest.Suite
	mini   *miniredis.Miniredis
	client *redis.Client
	redis  *Storage
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())
	s.client = redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.MaxTxRetries = 3
	s.redis = NewWithClient(s.client, cfg)

	s.NewStorage = func() storage.Storage { return s.redis }
	s.Suite.SetupTest()
}

func (s *StorageSuite) TearDownTest() {
	s.Suite.TearDownTest()
	if s.mini != nil {
		s.mini.Close()
	}
}

func (s *StorageSuite) TestPlayerStoredInFixedLayout() {
	ctx := context.Background()
	err := s.redis.Atomically(ctx, func(tx storage.Tx) error {
		return tx.InsertPlayer(ctx, &model.PlayerRecord{PlayerID: "alice", Score: 3})
	})
	s.Require().NoError(err)

	raw, err := s.mini.Get(playerKey("alice"))
	s.Require().NoError(err)
	s.Len(raw, model.PlayerRecordSize)

	members, err := s.mini.ZMembers(scoreIndexKey())
	s.Require().NoError(err)
	s.Equal([]string{scoreRankMember("alice", 3)}, members)
}

func (s *StorageSuite) TestScoreUpdateReplacesRankEntry() {
	ctx := context.Background()
	err := s.redis.Atomically(ctx, func(tx storage.Tx) error {
		return tx.InsertPlayer(ctx, &model.PlayerRecord{PlayerID: "alice", Score: 3})
	})
	s.Require().NoError(err)

	for _, score := range []uint64{math.MaxUint64, 0} {
		err = s.redis.Atomically(ctx, func(tx storage.Tx) error {
			rec, err := tx.GetPlayer(ctx, "alice")
			if err != nil {
				return err
			}
			rec.SetScore(score)
			return tx.UpdatePlayer(ctx, rec)
		})
		s.Require().NoError(err)

		members, err := s.mini.ZMembers(scoreIndexKey())
		s.Require().NoError(err)
		s.Equal([]string{scoreRankMember("alice", score)}, members)
	}
}

func (s *StorageSuite) TestUsernameClaimIsKeptByFirstSigner() {
	ctx := context.Background()
	s.Require().NoError(s.redis.SaveSigner(ctx, &model.Signer{ID: "sig_1", Username: "alice"}))

	err := s.redis.SaveSigner(ctx, &model.Signer{ID: "sig_2", Username: "alice"})
	s.ErrorIs(err, model.ErrAlreadyExists)

	owner, err := s.mini.Get(usernameIndexKey("alice"))
	s.Require().NoError(err)
	s.Equal("sig_1", owner)
	s.False(s.mini.Exists(signerKey("sig_2")))
}

func (s *StorageSuite) TestCorruptRecordSurfaces() {
	s.Require().NoError(s.mini.Set(playerKey("alice"), "garbage"))

	_, err := s.redis.GetPlayer(context.Background(), "alice")
	s.ErrorIs(err, model.ErrCorruptRecord)
}

func (s *StorageSuite) TestConflictingWriteRetriesUnit() {
	ctx := context.Background()
	err := s.redis.Atomically(ctx, func(tx storage.Tx) error {
		return tx.InsertPlayer(ctx, &model.PlayerRecord{PlayerID: "alice", Score: 1})
	})
	s.Require().NoError(err)

	attempts := 0
	err = s.redis.Atomically(ctx, func(tx storage.Tx) error {
		attempts++
		rec, err := tx.GetPlayer(ctx, "alice")
		if err != nil {
			return err
		}
		if attempts == 1 {
			// Another writer lands between our read and our commit
			other, _ := model.EncodePlayerRecord(&model.PlayerRecord{PlayerID: "alice", Score: 100})
			if err := s.client.Set(ctx, playerKey("alice"), other, 0).Err(); err != nil {
				return err
			}
		}
		rec.SetScore(rec.Score + 1)
		return tx.UpdatePlayer(ctx, rec)
	})
	s.Require().NoError(err)
	s.Equal(2, attempts)

	rec, err := s.redis.GetPlayer(ctx, "alice")
	s.Require().NoError(err)
	s.Equal(uint64(101), rec.Score)
}

func (s *StorageSuite) TestConflictRetriesExhausted() {
	ctx := context.Background()
	err := s.redis.Atomically(ctx, func(tx storage.Tx) error {
		return tx.InsertAccount(ctx, &model.TokenAccount{ID: "acct-1", Owner: "alice", Balance: 10})
	})
	s.Require().NoError(err)

	attempts := 0
	err = s.redis.Atomically(ctx, func(tx storage.Tx) error {
		attempts++
		acct, err := tx.GetAccount(ctx, "acct-1")
		if err != nil {
			return err
		}
		if err := s.client.Set(ctx, accountKey("acct-1"), `{"ID":"acct-1","Owner":"alice","Balance":10}`, 0).Err(); err != nil {
			return err
		}
		acct.Balance = 0
		return tx.UpdateAccount(ctx, acct)
	})
	s.ErrorIs(err, ErrTxConflict)
	s.Equal(3, attempts)

	acct, err := s.redis.GetAccount(ctx, "acct-1")
	s.Require().NoError(err)
	s.Equal(uint64(10), acct.Balance)
}

func (s *StorageSuite) TestTransferHistoryIsTrimmed() {
	s.redis.cfg.TransferHistoryLen = 2
	ctx := context.Background()

	for _, id := range []string{"t1", "t2", "t3"} {
		err := s.redis.Atomically(ctx, func(tx storage.Tx) error {
			return tx.AppendTransfer(ctx, &model.TransferReceipt{ID: id, From: "a", To: "b", Amount: 1})
		})
		s.Require().NoError(err)
	}

	receipts, err := s.redis.ListTransfers(ctx, "a", 10)
	s.Require().NoError(err)
	s.Require().Len(receipts, 2)
	s.Equal("t3", receipts[0].ID)
	s.Equal("t2", receipts[1].ID)
}
