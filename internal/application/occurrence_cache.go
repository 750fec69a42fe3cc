package application

import (
	"strings"
	"sync"
	"time"
)

// OccurrenceCache stores recently computed occupancy views so repeated
// calendar queries do not re-run rule expansion while a room's data is
// unchanged. Any write touching a room must invalidate that room's entries;
// the TTL is only a backstop.
type OccurrenceCache struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[string]occurrenceCacheEntry
}

type occurrenceCacheEntry struct {
	occurrences []Occurrence
	expiresAt   time.Time
}

// NewOccurrenceCache builds a cache with the given TTL and capacity.
// Non-positive values fall back to 30 seconds and 128 entries.
func NewOccurrenceCache(ttl time.Duration, maxEntries int, now func() time.Time) *OccurrenceCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if maxEntries <= 0 {
		maxEntries = 128
	}
	if now == nil {
		now = time.Now
	}
	return &OccurrenceCache{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]occurrenceCacheEntry),
	}
}

// Get returns a cached view and whether it was present and fresh.
func (c *OccurrenceCache) Get(key string) ([]Occurrence, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return cloneOccurrences(entry.occurrences), true
}

// Set stores a view under the key, evicting expired entries first when the
// cache is full.
func (c *OccurrenceCache) Set(key string, occurrences []Occurrence) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictLocked()
	}

	c.entries[key] = occurrenceCacheEntry{
		occurrences: cloneOccurrences(occurrences),
		expiresAt:   c.now().Add(c.ttl),
	}
}

// InvalidateRoom drops every cached view for the room. Cache keys are
// prefixed with the room id by the service layer.
func (c *OccurrenceCache) InvalidateRoom(roomID string) {
	if c == nil || roomID == "" {
		return
	}
	prefix := roomID + "|"
	c.mu.Lock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()
}

func (c *OccurrenceCache) evictLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
	if len(c.entries) < c.maxEntries {
		return
	}
	// Still full: drop an arbitrary entry rather than grow unbounded.
	for key := range c.entries {
		delete(c.entries, key)
		return
	}
}

func cloneOccurrences(occurrences []Occurrence) []Occurrence {
	if occurrences == nil {
		return nil
	}
	out := make([]Occurrence, len(occurrences))
	copy(out, occurrences)
	for i := range out {
		if out[i].Booking != nil {
			booking := *out[i].Booking
			out[i].Booking = &booking
		}
	}
	return out
}
