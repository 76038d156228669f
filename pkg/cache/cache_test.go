package cache

import (
	"testing"
	"time"
)

func TestTTLCacheSetAndGet(t *testing.T) {
	c := NewTTLCache(1*time.Second, 0, 10)
	defer c.Stop()

	type estimate struct {
		DistanceKm float64
		WeeklyKg   float64
	}

	c.Set("estimate|home|work|5", &estimate{DistanceKm: 12.4, WeeklyKg: 18.48})

	if c.Count() != 1 {
		t.Fatalf("expected count 1, got %d", c.Count())
	}

	v, ok := c.Get("estimate|home|work|5")
	if !ok {
		t.Fatal("expected to find cached estimate")
	}
	e, ok := v.(*estimate)
	if !ok || e.WeeklyKg != 18.48 {
		t.Errorf("unexpected cached value %v", v)
	}

	// Overwriting the same key keeps a single entry.
	c.Set("estimate|home|work|5", &estimate{DistanceKm: 12.4, WeeklyKg: 20.0})
	if c.Count() != 1 {
		t.Errorf("expected count 1 after overwrite, got %d", c.Count())
	}
}

func TestTTLCacheExpiration(t *testing.T) {
	c := NewTTLCache(50*time.Millisecond, 10*time.Millisecond, 10)
	defer c.Stop()

	c.Set("estimate|old", "stale")
	time.Sleep(100 * time.Millisecond)

	if _, ok := c.Get("estimate|old"); ok {
		t.Error("expected entry to expire")
	}
	if c.Count() != 0 {
		t.Errorf("expected cache to be empty after expiration, got %d", c.Count())
	}
}

func TestTTLCacheEviction(t *testing.T) {
	c := NewTTLCache(1*time.Second, 0, 2)
	defer c.Stop()

	c.Set("estimate|a", 1)
	c.Set("estimate|b", 2)
	c.Set("estimate|c", 3) // evicts the oldest entry

	if c.Count() != 2 {
		t.Fatalf("expected count 2 after eviction, got %d", c.Count())
	}
	if _, ok := c.Get("estimate|a"); ok {
		t.Error("expected oldest entry to be evicted")
	}
	if v, ok := c.Get("estimate|b"); !ok || v.(int) != 2 {
		t.Errorf("expected 2 for estimate|b, got %v", v)
	}
	if v, ok := c.Get("estimate|c"); !ok || v.(int) != 3 {
		t.Errorf("expected 3 for estimate|c, got %v", v)
	}
}

func TestGlobalCache(t *testing.T) {
	gc := GetGlobalCache()
	if gc == nil {
		t.Fatal("expected a global cache instance")
	}
	if gc2 := GetGlobalCache(); gc2 != gc {
		t.Error("expected the global cache to be a singleton")
	}
}
