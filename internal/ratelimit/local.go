package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LocalLimiter is an in-process Limiter with one token bucket per key. The
// bucket refills at rpmLimit per minute and bursts up to rpmLimit.
type LocalLimiter struct {
	mu       sync.RWMutex
	buckets  map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
	disabled bool
}

// NewLocalLimiter creates a LocalLimiter. rpmLimit ≤ 0 blocks every call.
func NewLocalLimiter(rpmLimit int) *LocalLimiter {
	l := &LocalLimiter{buckets: make(map[string]*rate.Limiter)}
	if rpmLimit <= 0 {
		l.disabled = true
		return l
	}
	l.limit = rate.Every(time.Minute / time.Duration(rpmLimit))
	l.burst = rpmLimit
	return l
}

func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, error) {
	if l.disabled {
		return false, nil
	}
	return l.bucket(key).Allow(), nil
}

func (l *LocalLimiter) bucket(key string) *rate.Limiter {
	l.mu.RLock()
	b, ok := l.buckets[key]
	l.mu.RUnlock()
	if ok {
		return b
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if b, ok = l.buckets[key]; ok {
		return b
	}
	b = rate.NewLimiter(l.limit, l.burst)
	l.buckets[key] = b
	return b
}
