package personalize

import (
	"bytes"
	"testing"
	"time"
)

func newTestCache(ttl time.Duration) (*Cache, *time.Time) {
	c := NewCache(ttl)
	current := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return current }
	return c, &current
}

func TestCacheRoundTripAndExpiry(t *testing.T) {
	c, clock := newTestCache(10 * time.Minute)

	c.Set(1, 2, []byte("rendered"))
	if got := c.Get(1, 2); !bytes.Equal(got, []byte("rendered")) {
		t.Fatalf("Get = %q, want cached bytes", got)
	}
	if got := c.Get(1, 3); got != nil {
		t.Fatalf("Get for other user = %q, want nil", got)
	}

	// Just before expiry the entry is still served.
	*clock = clock.Add(10*time.Minute - time.Second)
	if got := c.Get(1, 2); got == nil {
		t.Fatal("entry expired early")
	}

	*clock = clock.Add(2 * time.Second)
	if got := c.Get(1, 2); got != nil {
		t.Fatalf("Get after expiry = %q, want nil", got)
	}
	if c.Len() != 0 {
		t.Fatalf("expired entry not purged, Len = %d", c.Len())
	}
}

func TestCacheSetRefreshesExpiry(t *testing.T) {
	c, clock := newTestCache(10 * time.Minute)

	c.Set(1, 2, []byte("old"))
	*clock = clock.Add(9 * time.Minute)
	c.Set(1, 2, []byte("new"))

	*clock = clock.Add(9 * time.Minute)
	if got := c.Get(1, 2); !bytes.Equal(got, []byte("new")) {
		t.Fatalf("Get = %q, want refreshed entry", got)
	}
}

func TestCacheInvalidation(t *testing.T) {
	c, _ := newTestCache(10 * time.Minute)

	c.Set(1, 100, []byte("a"))
	c.Set(1, 200, []byte("b"))
	c.Set(2, 100, []byte("c"))

	c.InvalidateWorksheet(1)
	if c.Get(1, 100) != nil || c.Get(1, 200) != nil {
		t.Fatal("worksheet invalidation left entries behind")
	}
	if c.Get(2, 100) == nil {
		t.Fatal("worksheet invalidation removed an unrelated entry")
	}

	c.InvalidateUser(100)
	if c.Get(2, 100) != nil {
		t.Fatal("user invalidation left an entry behind")
	}
	if c.Len() != 0 {
		t.Fatalf("Len = %d, want 0", c.Len())
	}
}

func TestCacheDisabled(t *testing.T) {
	c := NewCache(0)
	if c.Enabled() {
		t.Fatal("zero TTL cache reports enabled")
	}
	c.Set(1, 2, []byte("x"))
	if c.Get(1, 2) != nil {
		t.Fatal("disabled cache served an entry")
	}

	var nilCache *Cache
	if nilCache.Enabled() {
		t.Fatal("nil cache reports enabled")
	}
	nilCache.InvalidateUser(1)
	if nilCache.Len() != 0 {
		t.Fatal("nil cache Len != 0")
	}
}
