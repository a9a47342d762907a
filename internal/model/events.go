package model

import "time"

// EventType identifies the type of event
type EventType string

const (
	EventPlayerInitialized EventType = "player.initialized"
	EventScoreUpdated      EventType = "score.updated"
	EventPowerUpPurchased  EventType = "powerup.purchased"
)

// Event describes a committed change to a player record
type Event struct {
	Type       EventType         `json:"type"`
	Timestamp  time.Time         `json:"timestamp"`
	PlayerID   PlayerID          `json:"player_id"`
	Attributes map[string]string `json:"attributes,omitempty"`
}
