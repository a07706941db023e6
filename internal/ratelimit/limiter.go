package ratelimit

import (
	"sync"
	"time"
)

// Limiter enforces a per-client sliding window: at most maxRequests
// admissions per window. Each client key holds its own lock, so admission
// checks for one client never block another.
type Limiter struct {
	maxRequests int
	window      time.Duration
	clients     sync.Map // string -> *window
	now         func() time.Time
}

type window struct {
	mu     sync.Mutex
	stamps []time.Time
}

func NewLimiter(maxRequests int, window time.Duration) *Limiter {
	if maxRequests <= 0 {
		maxRequests = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{
		maxRequests: maxRequests,
		window:      window,
		now:         time.Now,
	}
}

// Allow reports whether the client may proceed, recording the admission if
// so. Expired stamps are pruned lazily on each check; rejected requests are
// not recorded and do not count against future windows.
func (l *Limiter) Allow(client string) bool {
	v, _ := l.clients.LoadOrStore(client, &window{})
	w := v.(*window)

	w.mu.Lock()
	defer w.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	live := w.stamps[:0]
	for _, ts := range w.stamps {
		if ts.After(cutoff) {
			live = append(live, ts)
		}
	}
	w.stamps = live

	if len(w.stamps) >= l.maxRequests {
		return false
	}
	w.stamps = append(w.stamps, now)
	return true
}

// Prune drops clients whose every admission has aged out of the window.
// Intended to be called periodically from a background goroutine.
func (l *Limiter) Prune() {
	cutoff := l.now().Add(-l.window)
	l.clients.Range(func(key, v any) bool {
		w := v.(*window)
		w.mu.Lock()
		alive := false
		for _, ts := range w.stamps {
			if ts.After(cutoff) {
				alive = true
				break
			}
		}
		w.mu.Unlock()
		if !alive {
			l.clients.Delete(key)
		}
		return true
	})
}
