// internal/domain/schedule/guard.go
package schedule

import "sync"

// Guard remembers the last successfully completed period of one scheduler
// instance. It lives in process memory only; a restart inside a trigger
// window can therefore produce one extra run.
//
// It also records which recipients were delivered to during the current
// period so a retry after Rollback does not deliver to them twice.
type Guard struct {
	mu        sync.Mutex
	last      PeriodKey
	hasLast   bool
	ledgerKey PeriodKey
	delivered map[int64]struct{}
}

func NewGuard() *Guard {
	return &Guard{delivered: make(map[int64]struct{})}
}

// ShouldRun is true iff key differs from the last completed period.
func (g *Guard) ShouldRun(key PeriodKey) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.hasLast || g.last != key
}

func (g *Guard) MarkCompleted(key PeriodKey) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last = key
	g.hasLast = true
}

// Rollback forgets the last completed period so the next poll retries.
// Delivery records are kept.
func (g *Guard) Rollback() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last = ""
	g.hasLast = false
}

func (g *Guard) LastCompleted() (PeriodKey, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last, g.hasLast
}

func (g *Guard) Delivered(key PeriodKey, recipientID int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if key != g.ledgerKey {
		return false
	}
	_, ok := g.delivered[recipientID]
	return ok
}

// MarkDelivered records a delivery for key. Switching to a new key drops the
// records of the previous period.
func (g *Guard) MarkDelivered(key PeriodKey, recipientID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if key != g.ledgerKey {
		g.ledgerKey = key
		g.delivered = make(map[int64]struct{})
	}
	g.delivered[recipientID] = struct{}{}
}
