package factory

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/mcoot/powerup-ledger/internal/dependencies/mocks"
	"github.com/mcoot/powerup-ledger/internal/model"
	"github.com/mcoot/powerup-ledger/internal/storage"
	"github.com/mcoot/powerup-ledger/internal/storage/memory"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies,
// in-memory storage and an empty treasury
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	app := newWithDependencies(store, mockClock, mockRandom, Config{}, logger)
	if _, err := app.Ledger.EnsureAccount(context.Background(), app.Treasury, DefaultTreasuryOwner); err != nil {
		panic(err)
	}

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}

// FundAccount creates an account owned by owner holding balance base units
func (t *TestApp) FundAccount(ctx context.Context, id model.AccountID, owner model.Authority, balance uint64) error {
	return t.Storage.Atomically(ctx, func(tx storage.Tx) error {
		return tx.InsertAccount(ctx, &model.TokenAccount{
			ID:        id,
			Owner:     owner,
			Balance:   balance,
			CreatedAt: t.MockClock.Now(),
		})
	})
}
