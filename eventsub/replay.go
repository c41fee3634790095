package eventsub

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// replayGuard remembers message ids so re-deliveries are acknowledged without
// being reprocessed. Entries expire after the freshness window: anything
// older is rejected as stale before the guard is ever consulted, so keeping
// ids longer would only grow memory.
type replayGuard struct {
	clock  clockwork.Clock
	maxAge time.Duration

	mu       sync.Mutex
	expiries map[string]time.Time
}

func newReplayGuard(clock clockwork.Clock, maxAge time.Duration) *replayGuard {
	return &replayGuard{
		clock:    clock,
		maxAge:   maxAge,
		expiries: make(map[string]time.Time),
	}
}

// seen reports whether the id was marked within the freshness window.
func (g *replayGuard) seen(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	expiry, ok := g.expiries[id]
	if !ok {
		return false
	}
	if g.clock.Now().After(expiry) {
		delete(g.expiries, id)
		return false
	}
	return true
}

// mark records the id and sweeps expired entries while the lock is held.
func (g *replayGuard) mark(id string) {
	now := g.clock.Now()

	g.mu.Lock()
	defer g.mu.Unlock()

	for candidate, expiry := range g.expiries {
		if now.After(expiry) {
			delete(g.expiries, candidate)
		}
	}
	g.expiries[id] = now.Add(g.maxAge)
}
