package handlers

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const defaultMaxTracked = 10000

type trackedLimiter struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// userLimiter keeps one token bucket per participant. A zero rate disables
// limiting. Buckets idle long enough to refill completely are dropped, and
// the map never holds more than maxTracked users.
type userLimiter struct {
	mu         sync.Mutex
	limit      rate.Limit
	burst      int
	idle       time.Duration
	maxTracked int
	lastSweep  time.Time
	limiters   map[int64]*trackedLimiter

	now func() time.Time
}

func newUserLimiter(perMinute, burst int) *userLimiter {
	if burst < 1 {
		burst = 1
	}
	l := &userLimiter{
		limit:      rate.Limit(float64(perMinute) / 60),
		burst:      burst,
		maxTracked: defaultMaxTracked,
		limiters:   make(map[int64]*trackedLimiter),
		now:        time.Now,
	}
	if l.limit > 0 {
		l.idle = time.Duration(float64(burst) / float64(l.limit) * float64(time.Second))
	}
	return l
}

func (l *userLimiter) Allow(userID int64) bool {
	if l.limit == 0 {
		return true
	}

	l.mu.Lock()
	now := l.now()
	if now.Sub(l.lastSweep) >= l.idle {
		l.sweep(now)
	}

	entry, ok := l.limiters[userID]
	if !ok {
		if len(l.limiters) >= l.maxTracked {
			l.sweep(now)
		}
		if len(l.limiters) >= l.maxTracked {
			l.mu.Unlock()
			return false
		}
		entry = &trackedLimiter{lim: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[userID] = entry
	}
	entry.lastSeen = now
	l.mu.Unlock()

	return entry.lim.AllowN(now, 1)
}

// sweep drops buckets untouched for a full refill period; a fresh bucket
// behaves the same as one of those. Caller holds mu.
func (l *userLimiter) sweep(now time.Time) {
	for id, entry := range l.limiters {
		if now.Sub(entry.lastSeen) >= l.idle {
			delete(l.limiters, id)
		}
	}
	l.lastSweep = now
}

func (l *userLimiter) tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}
