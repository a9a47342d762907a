package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/powerup-ledger/internal/model"
	"github.com/mcoot/powerup-ledger/internal/services/token"
)

func TestDefaultCatalogPricesSpeedBoost(t *testing.T) {
	price, err := Default().PriceOf("speedBoost")
	require.NoError(t, err)
	assert.Equal(t, uint64(10_000_000), price)
	assert.Equal(t, "10", token.FormatUnits(price))
}

func TestPriceOfFailsClosed(t *testing.T) {
	c := Default()

	for _, id := range []model.PowerUpID{"", "SpeedBoost", "speedBoost ", "shield"} {
		_, err := c.PriceOf(id)
		assert.ErrorIs(t, err, ErrUnknownPowerUp, "id %q", id)
	}
}

func TestNewCopiesInput(t *testing.T) {
	prices := map[model.PowerUpID]uint64{"shield": 5}
	c := New(prices)

	prices["shield"] = 1
	prices["magnet"] = 7

	price, err := c.PriceOf("shield")
	require.NoError(t, err)
	assert.Equal(t, uint64(5), price)

	_, err = c.PriceOf("magnet")
	assert.ErrorIs(t, err, ErrUnknownPowerUp)
}

func TestEntriesAreSortedCopies(t *testing.T) {
	c := New(map[model.PowerUpID]uint64{"speedBoost": 3, "magnet": 2, "shield": 1})

	entries := c.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, []model.PowerUpID{"magnet", "shield", "speedBoost"},
		[]model.PowerUpID{entries[0].ID, entries[1].ID, entries[2].ID})

	entries[0].Price = 999
	price, _ := c.PriceOf("magnet")
	assert.Equal(t, uint64(2), price)
}
