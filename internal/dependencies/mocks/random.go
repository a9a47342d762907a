package mocks

import (
	"fmt"
	"sync"

	"github.com/mcoot/powerup-ledger/internal/dependencies/random"
)

// MockRandom hands out queued ids, then a zero-padded counter once the queue is empty
type MockRandom struct {
	mu      sync.Mutex
	queued  []string
	next    int
	counter int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

func (r *MockRandom) ID(length int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.next < len(r.queued) {
		id := r.queued[r.next]
		r.next++
		return id
	}
	r.counter++
	return fmt.Sprintf("%0*d", length, r.counter)
}

// QueueID adds values to be returned by ID, in order
func (r *MockRandom) QueueID(values ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queued = append(r.queued, values...)
}
