package order

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type historyKey struct {
	UserID uuid.UUID
	Page   int32
}

type historyEntry struct {
	page      *OrderPageDto
	expiresAt time.Time
}

// historyCache memoizes order-history pages per (user, page) for a fixed TTL.
// Entries are never invalidated early: a freshly placed order may not show up
// in the list until the entry expires.
type historyCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[historyKey]historyEntry
}

func newHistoryCache(ttl time.Duration) *historyCache {
	return &historyCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[historyKey]historyEntry),
	}
}

func (c *historyCache) Get(key historyKey) (*OrderPageDto, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		// re-check under the write lock; another goroutine may have refreshed it
		if current, ok := c.entries[key]; ok && c.now().After(current.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return entry.page, true
}

func (c *historyCache) Set(key historyKey, page *OrderPageDto) {
	c.mu.Lock()
	c.entries[key] = historyEntry{page: page, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}
