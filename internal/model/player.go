package model

import (
	"fmt"
	"strings"
	"time"
)

// Identifier bounds, in bytes of encoded data
const (
	MaxPlayerIDLen  = 32
	MaxPowerUpIDLen = 32
)

// PlayerID identifies a player record. It is chosen by the caller at creation time.
type PlayerID string

// PowerUpID names a power-up in the catalog
type PowerUpID string

// ActivePowerUp is a purchased power-up and the absolute time it stops applying
type ActivePowerUp struct {
	ID        PowerUpID
	ExpiresAt int64 // unix seconds
}

// ActiveAt reports whether the power-up still applies at t.
// Nothing clears an expired power-up; readers compare against their own clock.
func (p ActivePowerUp) ActiveAt(t time.Time) bool {
	return t.Unix() < p.ExpiresAt
}

// PlayerRecord is the durable game state of one player
type PlayerRecord struct {
	PlayerID PlayerID
	Score    uint64
	PowerUp  *ActivePowerUp // nil when no power-up has been purchased
}

// NewPlayerRecord returns a fresh record with a zero score and no power-up
func NewPlayerRecord(id PlayerID) (*PlayerRecord, error) {
	if err := ValidatePlayerID(id); err != nil {
		return nil, err
	}
	return &PlayerRecord{PlayerID: id}, nil
}

// ValidatePlayerID checks the identifier fits the persisted layout and can be
// addressed as a single URL path segment
func ValidatePlayerID(id PlayerID) error {
	if id == "" {
		return fmt.Errorf("%w: empty", ErrInvalidPlayerID)
	}
	if strings.Contains(string(id), "/") {
		return fmt.Errorf("%w: must not contain '/'", ErrInvalidPlayerID)
	}
	if len(id) > MaxPlayerIDLen {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrInvalidPlayerID, len(id), MaxPlayerIDLen)
	}
	return nil
}

// ValidatePowerUpID checks the identifier fits the persisted layout
func ValidatePowerUpID(id PowerUpID) error {
	if id == "" {
		return fmt.Errorf("%w: empty identifier", ErrInvalidPowerUp)
	}
	if len(id) > MaxPowerUpIDLen {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrInvalidPowerUp, len(id), MaxPowerUpIDLen)
	}
	return nil
}

// SetScore overwrites the score. Lower values are accepted.
func (r *PlayerRecord) SetScore(score uint64) {
	r.Score = score
}

// SetPowerUp replaces the power-up and its expiry together
func (r *PlayerRecord) SetPowerUp(id PowerUpID, expiresAt int64) {
	r.PowerUp = &ActivePowerUp{ID: id, ExpiresAt: expiresAt}
}

// PowerUpExpires returns the stored expiry, or 0 when no power-up is set
func (r *PlayerRecord) PowerUpExpires() int64 {
	if r.PowerUp == nil {
		return 0
	}
	return r.PowerUp.ExpiresAt
}

// ActivePowerUpAt returns the power-up if it still applies at t
func (r *PlayerRecord) ActivePowerUpAt(t time.Time) (ActivePowerUp, bool) {
	if r.PowerUp == nil || !r.PowerUp.ActiveAt(t) {
		return ActivePowerUp{}, false
	}
	return *r.PowerUp, true
}

// Clone returns a deep copy
func (r *PlayerRecord) Clone() *PlayerRecord {
	c := *r
	if r.PowerUp != nil {
		pu := *r.PowerUp
		c.PowerUp = &pu
	}
	return &c
}
