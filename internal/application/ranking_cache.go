package application

import (
	"sync"
	"time"

	"github.com/example/session-scheduler/internal/availability"
)

// rankingCache stores recently computed popular-slot rankings to avoid
// re-aggregating every response for identical overview queries while a
// schedule's responses remain unchanged.
type rankingCache struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[string]rankingCacheEntry
}

type rankingCacheEntry struct {
	slots     []availability.PopularSlot
	expiresAt time.Time
}

func newRankingCache(ttl time.Duration, maxEntries int, now func() time.Time) *rankingCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if maxEntries <= 0 {
		maxEntries = 128
	}
	if now == nil {
		now = time.Now
	}
	return &rankingCache{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]rankingCacheEntry),
	}
}

func (c *rankingCache) Get(scheduleID string) ([]availability.PopularSlot, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	entry, ok := c.entries[scheduleID]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, scheduleID)
		c.mu.Unlock()
		return nil, false
	}
	return clonePopularSlots(entry.slots), true
}

func (c *rankingCache) Store(scheduleID string, slots []availability.PopularSlot) {
	if c == nil {
		return
	}
	cloned := clonePopularSlots(slots)
	expiry := c.now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupLocked()
	if len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}
	c.entries[scheduleID] = rankingCacheEntry{slots: cloned, expiresAt: expiry}
}

// Invalidate drops the cached ranking for one schedule. Called whenever a
// response for that schedule is created, updated, or toggled.
func (c *rankingCache) Invalidate(scheduleID string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	delete(c.entries, scheduleID)
	c.mu.Unlock()
}

func (c *rankingCache) cleanupLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

func (c *rankingCache) evictOneLocked() {
	for key := range c.entries {
		delete(c.entries, key)
		return
	}
}

func clonePopularSlots(slots []availability.PopularSlot) []availability.PopularSlot {
	if len(slots) == 0 {
		return nil
	}
	out := make([]availability.PopularSlot, len(slots))
	copy(out, slots)
	return out
}
