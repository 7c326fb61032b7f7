package warranty

import (
	"context"
	"sync"
	"time"
)

// DefaultMinDelay is the default floor between outbound requests to the
// same manufacturer site. This is an anti-bot operational constraint, not a
// performance knob: hitting these portals faster gets the scraper blocked.
const DefaultMinDelay = 7 * time.Second

// Limiter enforces a minimum delay between requests per destination host.
// State lives for the process lifetime and is shared by all lookups, so
// concurrent lookups against the same site serialize with the floor while
// lookups against different sites proceed independently.
type Limiter struct {
	mu       sync.Mutex
	minDelay time.Duration
	next     map[string]time.Time
}

// NewLimiter creates a limiter with the given inter-request floor. A zero
// or negative delay falls back to DefaultMinDelay.
func NewLimiter(minDelay time.Duration) *Limiter {
	if minDelay <= 0 {
		minDelay = DefaultMinDelay
	}
	return &Limiter{
		minDelay: minDelay,
		next:     make(map[string]time.Time),
	}
}

// Wait blocks until the caller may contact host, reserving the slot so that
// concurrent waiters queue up behind each other. Returns the context error
// if ctx is done before the slot arrives.
func (l *Limiter) Wait(ctx context.Context, host string) error {
	l.mu.Lock()
	now := time.Now()
	at := l.next[host]
	if at.Before(now) {
		at = now
	}
	l.next[host] = at.Add(l.minDelay)
	l.mu.Unlock()

	wait := time.Until(at)
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// MinDelay returns the configured floor.
func (l *Limiter) MinDelay() time.Duration {
	return l.minDelay
}
