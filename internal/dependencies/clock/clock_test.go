package clock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mcoot/powerup-ledger/internal/dependencies/clock"
	"github.com/mcoot/powerup-ledger/internal/dependencies/mocks"
)

func TestDeadline(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clk := mocks.NewMockClock(start)

	assert.Equal(t, start.Unix()+8, clock.Deadline(clk, 8*time.Second))
	assert.Equal(t, start.Unix(), clock.Deadline(clk, 500*time.Millisecond))

	clk.Advance(1500 * time.Millisecond)
	assert.Equal(t, start.Unix()+9, clock.Deadline(clk, 8*time.Second))
}
