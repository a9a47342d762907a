package sqlstore

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/powerup-ledger/internal/model"
	"github.com/mcoot/powerup-ledger/internal/storage"
	"github.com/mcoot/powerup-ledger/internal/storage/storagetest"
)

func openSQLite(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(context.Background(), Config{Driver: DriverSQLite, DSN: path})
	require.NoError(t, err)
	return s
}

func TestSQLiteStorageSuite(t *testing.T) {
	suite.Run(t, &storagetest.Suite{
		NewStorage: func() storage.Storage {
			return openSQLite(t, filepath.Join(t.TempDir(), "ledger.db"))
		},
	})
}

func TestPostgresStorageSuite(t *testing.T) {
	dsn := os.Getenv("PWLEDGER_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("PWLEDGER_TEST_POSTGRES_DSN not set")
	}

	suite.Run(t, &storagetest.Suite{
		NewStorage: func() storage.Storage {
			s, err := Open(context.Background(), Config{Driver: DriverPostgres, DSN: dsn})
			require.NoError(t, err)
			for _, table := range []string{"players", "accounts", "transfers", "signers"} {
				_, err := s.db.Exec("TRUNCATE " + table)
				require.NoError(t, err)
			}
			return s
		},
	})
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "mysql", DSN: "x"})
	assert.Error(t, err)

	_, err = Open(context.Background(), Config{Driver: DriverSQLite})
	assert.Error(t, err)
}

func TestRecordsSurviveReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")

	s := openSQLite(t, path)
	err := s.Atomically(ctx, func(tx storage.Tx) error {
		rec := &model.PlayerRecord{PlayerID: "alice", Score: 9}
		rec.SetPowerUp("speedBoost", 1_700_000_008)
		return tx.InsertPlayer(ctx, rec)
	})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s = openSQLite(t, path)
	defer s.Close()

	rec, err := s.GetPlayer(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(9), rec.Score)
	require.NotNil(t, rec.PowerUp)
	assert.Equal(t, int64(1_700_000_008), rec.PowerUp.ExpiresAt)
}

func TestConcurrentUnitsSerialize(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t, filepath.Join(t.TempDir(), "ledger.db"))
	defer s.Close()

	require.NoError(t, s.Atomically(ctx, func(tx storage.Tx) error {
		return tx.InsertAccount(ctx, &model.TokenAccount{ID: "pool", Owner: "alice", Balance: 100})
	}))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Atomically(ctx, func(tx storage.Tx) error {
				acct, err := tx.GetAccount(ctx, "pool")
				if err != nil {
					return err
				}
				acct.Balance--
				return tx.UpdateAccount(ctx, acct)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	acct, err := s.GetAccount(ctx, "pool")
	require.NoError(t, err)
	assert.Equal(t, uint64(80), acct.Balance)
}

func TestRebind(t *testing.T) {
	pg := dialect{driver: DriverPostgres}
	assert.Equal(t, "SELECT a FROM t WHERE x = $1 AND y = $2", pg.rebind("SELECT a FROM t WHERE x = ? AND y = ?"))

	lite := dialect{driver: DriverSQLite}
	assert.Equal(t, "SELECT ?", lite.rebind("SELECT ?"))
}

func TestScoreKeyOrdersLexically(t *testing.T) {
	assert.Less(t, scoreKey(9), scoreKey(10))
	assert.Less(t, scoreKey(1<<62), scoreKey(1<<63))
	assert.Len(t, scoreKey(^uint64(0)), 20)
}
