// Package catalog prices power-ups. The catalog is fixed when built and
// changes only with a new release.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/mcoot/powerup-ledger/internal/model"
)

// ErrUnknownPowerUp is returned for identifiers that are not in the catalog
var ErrUnknownPowerUp = errors.New("unknown power-up")

// EffectDuration is how long a purchased power-up applies
const EffectDuration = 8 * time.Second

// SpeedBoost is the only power-up sold by default
const SpeedBoost model.PowerUpID = "speedBoost"

// Entry is one priced power-up
type Entry struct {
	ID    model.PowerUpID
	Price uint64 // token base units
}

// Catalog maps power-up identifiers to prices
type Catalog struct {
	prices map[model.PowerUpID]uint64
}

// New builds a catalog from the given prices. The map is copied.
func New(prices map[model.PowerUpID]uint64) *Catalog {
	c := &Catalog{prices: make(map[model.PowerUpID]uint64, len(prices))}
	for id, price := range prices {
		c.prices[id] = price
	}
	return c
}

// Default returns the production catalog
func Default() *Catalog {
	return New(map[model.PowerUpID]uint64{
		SpeedBoost: 10_000_000, // 10 tokens at 6 decimals
	})
}

// PriceOf returns the price of a power-up in base units
func (c *Catalog) PriceOf(id model.PowerUpID) (uint64, error) {
	price, ok := c.prices[id]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownPowerUp, id)
	}
	return price, nil
}

// Entries lists the catalog sorted by identifier
func (c *Catalog) Entries() []Entry {
	entries := make([]Entry, 0, len(c.prices))
	for id, price := range c.prices {
		entries = append(entries, Entry{ID: id, Price: price})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries
}
