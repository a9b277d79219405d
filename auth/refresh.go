package auth

import (
	"sync"
)

type refreshPhase int

const (
	refreshIdle refreshPhase = iota
	refreshInFlight
)

// refreshOutcome is delivered identically to every caller of one refresh.
type refreshOutcome struct {
	accessToken string
	err         error
}

// refreshCoordinator coalesces concurrent refresh requests. While a refresh is
// in flight, later callers queue and receive the leader's outcome in the order
// they arrived. begin and settle are the only transitions.
type refreshCoordinator struct {
	mu      sync.Mutex
	phase   refreshPhase
	waiters []chan refreshOutcome
}

// begin reports whether the caller leads a new refresh. Otherwise it returns
// the channel on which the in-flight outcome will arrive.
func (c *refreshCoordinator) begin() (<-chan refreshOutcome, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase == refreshInFlight {
		ch := make(chan refreshOutcome, 1)
		c.waiters = append(c.waiters, ch)
		return ch, false
	}
	c.phase = refreshInFlight
	return nil, true
}

// settle returns to idle and resolves every queued waiter with outcome.
func (c *refreshCoordinator) settle(outcome refreshOutcome) {
	c.mu.Lock()
	waiters := c.waiters
	c.waiters = nil
	c.phase = refreshIdle
	c.mu.Unlock()

	for _, ch := range waiters {
		ch <- outcome
	}
}

func (c *refreshCoordinator) inFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase == refreshInFlight
}

func (c *refreshCoordinator) queued() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}
