package ratelimit

import (
	"sync"
	"time"
)

// Decision is the outcome of an admission check.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration // zero when allowed
	Remaining  int
}

// Limiter is a per-user sliding-window request counter. State lives only
// in this process; running multiple instances without a shared backing
// store weakens the limit to per-instance, which is a documented
// single-instance limitation.
type Limiter struct {
	max    int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	windows map[string][]time.Time
}

func New(max int, window time.Duration) *Limiter {
	if max <= 0 {
		max = 30
	}
	if window <= 0 {
		window = time.Hour
	}
	return &Limiter{
		max:     max,
		window:  window,
		now:     time.Now,
		windows: make(map[string][]time.Time),
	}
}

// WithClock overrides the time source.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// Admit purges expired entries for the user, then either records the
// request and allows it, or denies it with the time until the oldest
// recorded request ages out of the window.
func (l *Limiter) Admit(userID string) Decision {
	now := l.now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.windows[userID][:0]
	for _, t := range l.windows[userID] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= l.max {
		l.windows[userID] = kept
		return Decision{
			Allowed:    false,
			RetryAfter: kept[0].Add(l.window).Sub(now),
			Remaining:  0,
		}
	}

	kept = append(kept, now)
	l.windows[userID] = kept
	return Decision{Allowed: true, Remaining: l.max - len(kept)}
}
