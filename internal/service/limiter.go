package service

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter hands out one token bucket per user for model calls.
type Limiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	buckets map[int64]*rate.Limiter
}

// NewLimiter allows perMinute calls per user with the given burst. A
// non-positive perMinute disables limiting.
func NewLimiter(perMinute float64, burst int) *Limiter {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Every(time.Duration(float64(time.Minute) / perMinute))
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		limit:   limit,
		burst:   burst,
		buckets: make(map[int64]*rate.Limiter),
	}
}

func (l *Limiter) Allow(telegramID int64) bool {
	return l.bucket(telegramID).Allow()
}

func (l *Limiter) allowAt(telegramID int64, t time.Time) bool {
	return l.bucket(telegramID).AllowN(t, 1)
}

func (l *Limiter) bucket(telegramID int64) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[telegramID]
	if !ok {
		b = rate.NewLimiter(l.limit, l.burst)
		l.buckets[telegramID] = b
	}
	return b
}
