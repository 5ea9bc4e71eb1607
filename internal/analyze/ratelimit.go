package analyze

import "time"

// Limiter is a process-local sliding-window rate limiter. It keeps the
// timestamps of the most recent calls; when the window is full, Wait blocks
// until the oldest call ages out. Best effort only: not distributed, not
// persisted across restarts, and intended for sequential reentry within one
// ingestion run rather than concurrent callers.
type Limiter struct {
	perMinute int
	window    time.Duration
	calls     []time.Time

	// injected for tests
	now   func() time.Time
	sleep func(time.Duration)
}

// NewLimiter creates a limiter allowing perMinute calls per sliding 60s
// window. perMinute <= 0 disables limiting.
func NewLimiter(perMinute int) *Limiter {
	return &Limiter{
		perMinute: perMinute,
		window:    time.Minute,
		now:       time.Now,
		sleep:     time.Sleep,
	}
}

// Wait blocks until a call is allowed, then records it.
func (l *Limiter) Wait() {
	if l.perMinute <= 0 {
		return
	}

	now := l.now()
	l.drop(now)

	if len(l.calls) >= l.perMinute {
		// Sleep until the oldest recorded call exits the window.
		wait := l.calls[0].Add(l.window).Sub(now)
		if wait > 0 {
			l.sleep(wait)
		}
		now = l.now()
		l.drop(now)
	}

	l.calls = append(l.calls, now)
}

// drop removes call timestamps older than the window.
func (l *Limiter) drop(now time.Time) {
	cutoff := now.Add(-l.window)
	kept := l.calls[:0]
	for _, t := range l.calls {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	l.calls = kept
}
