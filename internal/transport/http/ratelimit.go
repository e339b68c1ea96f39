package http

import "time"

// rateLimiter is a fixed-window counter for one connection's inbound
// frames. It is owned by the read loop and is not safe for concurrent use.
type rateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	start   time.Time
	counter int
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	if limit <= 0 {
		return &rateLimiter{limit: 0}
	}
	return &rateLimiter{
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

func (r *rateLimiter) allow() bool {
	if r == nil || r.limit <= 0 {
		return true
	}
	now := r.now()
	if r.start.IsZero() || now.Sub(r.start) >= r.window {
		r.start = now
		r.counter = 0
	}
	r.counter++
	return r.counter <= r.limit
}
