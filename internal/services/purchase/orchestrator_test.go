package purchase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/powerup-ledger/internal/catalog"
	"github.com/mcoot/powerup-ledger/internal/dependencies/mocks"
	"github.com/mcoot/powerup-ledger/internal/model"
	"github.com/mcoot/powerup-ledger/internal/services/token"
	"github.com/mcoot/powerup-ledger/internal/storage"
	"github.com/mcoot/powerup-ledger/internal/storage/memory"
	redisstore "github.com/mcoot/powerup-ledger/internal/storage/redis"
)

const speedBoostPrice = 10_000_000

type OrchestratorSuite struct {
	suite.Suite
	newStorage func() storage.Storage

	storage      storage.Storage
	clock        *mocks.MockClock
	random       *mocks.MockRandom
	publisher    *mocks.MockPublisher
	ledger       *token.Ledger
	orchestrator *Orchestrator
	ctx          context.Context
}

func TestOrchestratorMemory(t *testing.T) {
	suite.Run(t, &OrchestratorSuite{
		newStorage: func() storage.Storage { return memory.New() },
	})
}

func TestOrchestratorRedis(t *testing.T) {
	s := &OrchestratorSuite{}
	s.newStorage = func() storage.Storage {
		mini := miniredis.RunT(s.T())
		client := goredis.NewClient(&goredis.Options{Addr: mini.Addr()})
		cfg := redisstore.DefaultConfig()
		cfg.MaxTxRetries = 50
		return redisstore.NewWithClient(client, cfg)
	}
	suite.Run(t, s)
}

func (s *OrchestratorSuite) SetupTest() {
	s.storage = s.newStorage()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.publisher = mocks.NewMockPublisher()
	s.ctx = context.Background()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.ledger = token.New(s.storage, s.clock, s.random, logger, token.DefaultConfig())
	s.orchestrator = New(s.storage, catalog.Default(), s.ledger, s.clock, s.publisher, logger, Config{Treasury: "treasury"})

	s.seedAccount("treasury", "game", 0)
	s.seedPlayer("alice")
}

func (s *OrchestratorSuite) TearDownTest() {
	_ = s.storage.Close()
}

func (s *OrchestratorSuite) seedAccount(id model.AccountID, owner model.Authority, balance uint64) {
	err := s.storage.Atomically(s.ctx, func(tx storage.Tx) error {
		return tx.InsertAccount(s.ctx, &model.TokenAccount{ID: id, Owner: owner, Balance: balance})
	})
	s.Require().NoError(err)
}

func (s *OrchestratorSuite) seedPlayer(id model.PlayerID) {
	err := s.storage.Atomically(s.ctx, func(tx storage.Tx) error {
		return tx.InsertPlayer(s.ctx, &model.PlayerRecord{PlayerID: id, Score: 77})
	})
	s.Require().NoError(err)
}

func (s *OrchestratorSuite) balance(id model.AccountID) uint64 {
	acct, err := s.storage.GetAccount(s.ctx, id)
	s.Require().NoError(err)
	return acct.Balance
}

func (s *OrchestratorSuite) player(id model.PlayerID) *model.PlayerRecord {
	rec, err := s.storage.GetPlayer(s.ctx, id)
	s.Require().NoError(err)
	return rec
}

func (s *OrchestratorSuite) request(powerUp model.PowerUpID) Request {
	return Request{
		PlayerID:  "alice",
		PowerUp:   powerUp,
		Authority: "alice",
		Funding:   "alice-wallet",
	}
}

// Success path

func (s *OrchestratorSuite) TestBuyWithExactBalance() {
	s.seedAccount("alice-wallet", "alice", speedBoostPrice)

	res, err := s.orchestrator.BuyPowerUp(s.ctx, s.request(catalog.SpeedBoost))
	s.Require().NoError(err)

	now := s.clock.Now().Unix()
	s.Equal(uint64(speedBoostPrice), res.Price)
	s.Equal(uint64(speedBoostPrice), res.Receipt.Amount)
	s.Equal(model.AccountID("treasury"), res.Receipt.To)

	s.Equal(uint64(0), s.balance("alice-wallet"))
	s.Equal(uint64(speedBoostPrice), s.balance("treasury"))

	rec := s.player("alice")
	s.Require().NotNil(rec.PowerUp)
	s.Equal(catalog.SpeedBoost, rec.PowerUp.ID)
	s.Equal(now+8, rec.PowerUpExpires())
	s.Equal(uint64(77), rec.Score)
	s.Equal(res.Player, rec)
}

func (s *OrchestratorSuite) TestPowerUpIsActiveForEightSeconds() {
	s.seedAccount("alice-wallet", "alice", speedBoostPrice)

	_, err := s.orchestrator.BuyPowerUp(s.ctx, s.request(catalog.SpeedBoost))
	s.Require().NoError(err)

	rec := s.player("alice")
	_, active := rec.ActivePowerUpAt(s.clock.Now().Add(7 * time.Second))
	s.True(active)
	_, active = rec.ActivePowerUpAt(s.clock.Now().Add(8 * time.Second))
	s.False(active)

	// Expiry is left to readers: the record is not cleared
	s.clock.Advance(time.Minute)
	s.NotNil(s.player("alice").PowerUp)
}

func (s *OrchestratorSuite) TestRepurchaseOverwrites() {
	s.seedAccount("alice-wallet", "alice", 3*speedBoostPrice)

	_, err := s.orchestrator.BuyPowerUp(s.ctx, s.request(catalog.SpeedBoost))
	s.Require().NoError(err)
	first := s.player("alice").PowerUpExpires()

	s.clock.Advance(3 * time.Second)
	_, err = s.orchestrator.BuyPowerUp(s.ctx, s.request(catalog.SpeedBoost))
	s.Require().NoError(err)

	rec := s.player("alice")
	s.Equal(first+3, rec.PowerUpExpires())
	s.Equal(s.clock.Now().Unix()+8, rec.PowerUpExpires())
	s.Equal(uint64(speedBoostPrice), s.balance("alice-wallet"))
	s.Equal(uint64(2*speedBoostPrice), s.balance("treasury"))
}

func (s *OrchestratorSuite) TestDifferentPowerUpReplacesActiveOne() {
	s.seedAccount("alice-wallet", "alice", 100_000_000)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.orchestrator = New(s.storage, catalog.New(map[model.PowerUpID]uint64{
		catalog.SpeedBoost: speedBoostPrice,
		"shield":           2_000_000,
	}), s.ledger, s.clock, s.publisher, logger, Config{Treasury: "treasury"})

	_, err := s.orchestrator.BuyPowerUp(s.ctx, s.request(catalog.SpeedBoost))
	s.Require().NoError(err)
	s.clock.Advance(time.Second)
	res, err := s.orchestrator.BuyPowerUp(s.ctx, s.request("shield"))
	s.Require().NoError(err)
	s.Equal(uint64(2_000_000), res.Price)

	rec := s.player("alice")
	s.Equal(model.PowerUpID("shield"), rec.PowerUp.ID)
	s.Equal(s.clock.Now().Unix()+8, rec.PowerUpExpires())
}

func (s *OrchestratorSuite) TestPublishesAfterCommit() {
	s.seedAccount("alice-wallet", "alice", speedBoostPrice)

	res, err := s.orchestrator.BuyPowerUp(s.ctx, s.request(catalog.SpeedBoost))
	s.Require().NoError(err)

	events := s.publisher.Events()
	s.Require().Len(events, 1)
	s.Equal(model.EventPowerUpPurchased, events[0].Type)
	s.Equal("speedBoost", events[0].Attributes["power_up"])
	s.Equal(res.Receipt.ID, events[0].Attributes["receipt_id"])
}

func (s *OrchestratorSuite) TestExplicitTreasuryMustMatch() {
	s.seedAccount("alice-wallet", "alice", speedBoostPrice)
	s.seedAccount("elsewhere", "alice", 0)

	req := s.request(catalog.SpeedBoost)
	req.Treasury = "elsewhere"
	_, err := s.orchestrator.BuyPowerUp(s.ctx, req)
	s.ErrorIs(err, ErrTreasuryMismatch)
	s.Equal(uint64(speedBoostPrice), s.balance("alice-wallet"))

	req.Treasury = "treasury"
	_, err = s.orchestrator.BuyPowerUp(s.ctx, req)
	s.NoError(err)
}

// Failure paths leave everything unchanged

func (s *OrchestratorSuite) assertUntouched(walletBalance uint64) {
	rec := s.player("alice")
	s.Nil(rec.PowerUp)
	s.Equal(int64(0), rec.PowerUpExpires())
	s.Equal(uint64(77), rec.Score)
	s.Equal(walletBalance, s.balance("alice-wallet"))
	s.Equal(uint64(0), s.balance("treasury"))
	s.Empty(s.publisher.Events())

	history, err := s.ledger.History(s.ctx, "treasury", 10)
	s.Require().NoError(err)
	s.Empty(history)
}

func (s *OrchestratorSuite) TestUnknownPowerUp() {
	s.seedAccount("alice-wallet", "alice", speedBoostPrice)

	for _, id := range []model.PowerUpID{"", "SpeedBoost", "teleport", "speedBoost "} {
		_, err := s.orchestrator.BuyPowerUp(s.ctx, s.request(id))
		s.ErrorIs(err, model.ErrInvalidPowerUp, "power-up %q", id)
		s.ErrorIs(err, catalog.ErrUnknownPowerUp)
	}
	s.assertUntouched(speedBoostPrice)
}

func (s *OrchestratorSuite) TestUnknownPowerUpReportedBeforeMissingFunding() {
	s.seedAccount("alice-wallet", "alice", 0)

	req := s.request("teleport")
	req.Funding = ""
	_, err := s.orchestrator.BuyPowerUp(s.ctx, req)
	s.ErrorIs(err, model.ErrInvalidPowerUp)
	s.NotErrorIs(err, ErrFundingRequired)

	req.PowerUp = catalog.SpeedBoost
	_, err = s.orchestrator.BuyPowerUp(s.ctx, req)
	s.ErrorIs(err, ErrFundingRequired)
	s.assertUntouched(0)
}

func (s *OrchestratorSuite) TestInsufficientFunds() {
	s.seedAccount("alice-wallet", "alice", 5_000_000)

	_, err := s.orchestrator.BuyPowerUp(s.ctx, s.request(catalog.SpeedBoost))
	s.ErrorIs(err, model.ErrTransferFailed)
	s.ErrorIs(err, model.ErrInsufficientFunds)
	s.assertUntouched(5_000_000)
}

func (s *OrchestratorSuite) TestWrongAuthority() {
	s.seedAccount("alice-wallet", "alice", speedBoostPrice)

	req := s.request(catalog.SpeedBoost)
	req.Authority = "mallory"
	_, err := s.orchestrator.BuyPowerUp(s.ctx, req)
	s.ErrorIs(err, model.ErrTransferFailed)
	s.ErrorIs(err, model.ErrOwnerMismatch)
	s.assertUntouched(speedBoostPrice)
}

func (s *OrchestratorSuite) TestFrozenFunding() {
	s.seedAccount("alice-wallet", "alice", speedBoostPrice)
	s.Require().NoError(s.ledger.SetFrozen(s.ctx, "alice-wallet", true))

	_, err := s.orchestrator.BuyPowerUp(s.ctx, s.request(catalog.SpeedBoost))
	s.ErrorIs(err, model.ErrTransferFailed)
	s.ErrorIs(err, model.ErrAccountFrozen)
	s.assertUntouched(speedBoostPrice)
}

func (s *OrchestratorSuite) TestMissingFundingAccount() {
	s.seedAccount("alice-wallet", "alice", 0)

	req := s.request(catalog.SpeedBoost)
	req.Funding = "nope"
	_, err := s.orchestrator.BuyPowerUp(s.ctx, req)
	s.ErrorIs(err, model.ErrTransferFailed)
	s.ErrorIs(err, model.ErrAccountNotFound)
	s.assertUntouched(0)
}

func (s *OrchestratorSuite) TestMissingPlayer() {
	s.seedAccount("alice-wallet", "alice", speedBoostPrice)

	req := s.request(catalog.SpeedBoost)
	req.PlayerID = "ghost"
	_, err := s.orchestrator.BuyPowerUp(s.ctx, req)
	s.ErrorIs(err, model.ErrRecordNotFound)
	s.NotErrorIs(err, model.ErrTransferFailed)
	s.assertUntouched(speedBoostPrice)
}

func (s *OrchestratorSuite) TestGrantFailureRefundsPayment() {
	s.seedAccount("alice-wallet", "alice", speedBoostPrice)
	failing := &failingStorage{Storage: s.storage}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.orchestrator = New(failing, catalog.Default(), s.ledger, s.clock, s.publisher, logger, Config{Treasury: "treasury"})

	_, err := s.orchestrator.BuyPowerUp(s.ctx, s.request(catalog.SpeedBoost))
	s.ErrorIs(err, errWriteRejected)
	s.assertUntouched(speedBoostPrice)
}

// Concurrency

func (s *OrchestratorSuite) TestConcurrentPurchasesNeverOverdraw() {
	s.seedAccount("alice-wallet", "alice", 5*speedBoostPrice)

	var wg sync.WaitGroup
	var succeeded atomic.Int32
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.orchestrator.BuyPowerUp(s.ctx, s.request(catalog.SpeedBoost)); err == nil {
				succeeded.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(5), succeeded.Load())
	s.Equal(uint64(0), s.balance("alice-wallet"))
	s.Equal(uint64(5*speedBoostPrice), s.balance("treasury"))
}

// failingStorage rejects the player write so the purchase fails after payment was staged
type failingStorage struct {
	storage.Storage
}

var errWriteRejected = errors.New("player write rejected")

func (f *failingStorage) Atomically(ctx context.Context, fn func(tx storage.Tx) error) error {
	return f.Storage.Atomically(ctx, func(tx storage.Tx) error {
		return fn(&rejectingTx{Tx: tx})
	})
}

type rejectingTx struct {
	storage.Tx
}

func (t *rejectingTx) UpdatePlayer(ctx context.Context, rec *model.PlayerRecord) error {
	return errWriteRejected
}
