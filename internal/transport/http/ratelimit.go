package http

import (
	"sync"
	"time"
)

// userRateLimiter tracks recent hits per user over a sliding window.
type userRateLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	hits   map[int64][]time.Time
}

func newUserRateLimiter(limit int) *userRateLimiter {
	if limit <= 0 {
		return &userRateLimiter{limit: 0}
	}
	return &userRateLimiter{
		limit:  limit,
		window: time.Minute,
		hits:   make(map[int64][]time.Time),
	}
}

// allow reports whether userID may perform another action. A zero
// limit disables limiting entirely.
func (r *userRateLimiter) allow(userID int64) bool {
	if r == nil || r.limit <= 0 {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-r.window)

	recent := r.hits[userID][:0]
	for _, t := range r.hits[userID] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= r.limit {
		r.hits[userID] = recent
		return false
	}

	r.hits[userID] = append(recent, now)
	return true
}
