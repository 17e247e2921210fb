package orders

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	// DefaultDedupeWindow is how long an identical create request is
	// treated as a transport retry rather than a new order.
	DefaultDedupeWindow = 30 * time.Second

	dedupeMaxEntries = 1024
)

// DedupeGuard suppresses re-execution of an identical create-order
// request arriving twice within the window. It protects against an agent
// or transport retrying a slow tool call, which would otherwise deduct
// inventory twice. It is process-local and lost on restart, which is
// acceptable for a 30 second window. Stale entries are swept lazily on
// every call; there is no background timer.
type DedupeGuard struct {
	mu      sync.Mutex
	entries *lru.Cache[string, time.Time]
	window  time.Duration
	now     Clock
}

// NewDedupeGuard builds a guard. window <= 0 uses the default; now may be
// nil for the wall clock.
func NewDedupeGuard(window time.Duration, now Clock) *DedupeGuard {
	if window <= 0 {
		window = DefaultDedupeWindow
	}
	if now == nil {
		now = time.Now
	}
	// Size bound only matters under pathological request floods; the
	// sweep keeps the cache near-empty in normal operation.
	entries, _ := lru.New[string, time.Time](dedupeMaxEntries)
	return &DedupeGuard{entries: entries, window: window, now: now}
}

// DedupeKey builds the identity of a create request. Exact concatenation,
// deliberately unnormalized: "Ali" and "ali " are different customers as
// far as retry detection is concerned.
func DedupeKey(customerName, productName string, quantity int, email, address string) string {
	return fmt.Sprintf("%s_%s_%d_%s_%s", customerName, productName, quantity, email, address)
}

// Seen reports whether key was recorded within the window.
func (g *DedupeGuard) Seen(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.sweep()
	_, ok := g.entries.Get(key)
	return ok
}

// Record marks key as processed at the current time.
func (g *DedupeGuard) Record(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.sweep()
	g.entries.Add(key, g.now())
}

// Len returns the number of live entries, for tests and metrics.
func (g *DedupeGuard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.sweep()
	return g.entries.Len()
}

func (g *DedupeGuard) sweep() {
	cutoff := g.now().Add(-g.window)
	for _, key := range g.entries.Keys() {
		recorded, ok := g.entries.Peek(key)
		if ok && recorded.Before(cutoff) {
			g.entries.Remove(key)
		}
	}
}
