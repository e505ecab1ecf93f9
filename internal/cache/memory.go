package cache

import (
	"context"
	"sync"
	"time"
)

const defaultJanitorInterval = 5 * time.Minute

type memItem struct {
	data      []byte
	expiresAt time.Time
}

// MemoryCache is an in-process cache with per-entry TTL. It is safe for
// concurrent use; a janitor goroutine evicts expired entries until the
// context is cancelled or Close is called.
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string]memItem

	now      func() time.Time
	interval time.Duration

	done      chan struct{}
	closeOnce sync.Once
}

// MemoryOption configures a MemoryCache.
type MemoryOption func(*MemoryCache)

// WithJanitorInterval sets how often expired entries are swept.
func WithJanitorInterval(d time.Duration) MemoryOption {
	return func(c *MemoryCache) {
		if d > 0 {
			c.interval = d
		}
	}
}

// withClock replaces time.Now; tests only.
func withClock(now func() time.Time) MemoryOption {
	return func(c *MemoryCache) { c.now = now }
}

// NewMemoryCache creates a MemoryCache and starts its janitor.
func NewMemoryCache(ctx context.Context, opts ...MemoryOption) *MemoryCache {
	c := &MemoryCache{
		items:    make(map[string]memItem),
		now:      time.Now,
		interval: defaultJanitorInterval,
		done:     make(chan struct{}),
	}
	for _, o := range opts {
		o(c)
	}
	go c.janitor(ctx)
	return c
}

// Get returns the value for key. Expired entries count as misses and are
// dropped on access.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}

	if c.now().After(item.expiresAt) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return nil, false
	}

	return item.data, true
}

// Set stores value under key. A non-positive ttl means one hour.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = time.Hour
	}

	c.mu.Lock()
	c.items[key] = memItem{
		data:      value,
		expiresAt: c.now().Add(ttl),
	}
	c.mu.Unlock()

	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired ones included until
// they are swept.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close stops the janitor. It is safe to call more than once.
func (c *MemoryCache) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}

func (c *MemoryCache) janitor(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.evictExpired()
		case <-ctx.Done():
			return
		case <-c.done:
			return
		}
	}
}

func (c *MemoryCache) evictExpired() {
	now := c.now()

	c.mu.Lock()
	for k, v := range c.items {
		if now.After(v.expiresAt) {
			delete(c.items, k)
		}
	}
	c.mu.Unlock()
}
