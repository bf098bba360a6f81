package personalize

import (
	"sync"
	"time"
)

// Key identifies one rendered artifact: a worksheet personalized for a user.
type Key struct {
	WorksheetID int64
	UserID      int64
}

type cacheEntry struct {
	data    []byte
	expires time.Time
}

// Cache is an in-memory TTL store for rendered PDF bytes. A TTL of zero
// or less disables it entirely. Construct one per process and inject it;
// tests get isolation from fresh instances.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[Key]cacheEntry
	now     func() time.Time
}

// NewCache constructs a Cache with the given TTL.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[Key]cacheEntry),
		now:     time.Now,
	}
}

// Enabled reports whether caching is active.
func (c *Cache) Enabled() bool {
	return c != nil && c.ttl > 0
}

// Get returns the cached bytes for the key, or nil on miss. Expired
// entries are purged lazily here and never returned.
func (c *Cache) Get(worksheetID, userID int64) []byte {
	if !c.Enabled() {
		return nil
	}
	key := Key{WorksheetID: worksheetID, UserID: userID}

	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil
	}
	if !c.now().Before(entry.expires) {
		delete(c.entries, key)
		return nil
	}
	return entry.data
}

// Set stores the bytes under the key with a fresh expiry, overwriting any
// prior entry. No-op when caching is disabled.
func (c *Cache) Set(worksheetID, userID int64, data []byte) {
	if !c.Enabled() {
		return
	}
	key := Key{WorksheetID: worksheetID, UserID: userID}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{data: data, expires: c.now().Add(c.ttl)}
}

// InvalidateWorksheet removes every entry for the worksheet, for all
// users. Called after the canonical file is deleted.
func (c *Cache) InvalidateWorksheet(worksheetID int64) {
	c.invalidate(func(k Key) bool { return k.WorksheetID == worksheetID })
}

// InvalidateUser removes every entry for the user, across worksheets.
// Called after any branding field changes.
func (c *Cache) InvalidateUser(userID int64) {
	c.invalidate(func(k Key) bool { return k.UserID == userID })
}

// invalidate scans the full key set; entry volume stays small per
// process, so no secondary index is kept.
func (c *Cache) invalidate(match func(Key) bool) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if match(key) {
			delete(c.entries, key)
		}
	}
}

// Len reports the number of live entries, counting expired ones until
// they are purged.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
