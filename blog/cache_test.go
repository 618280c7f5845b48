package blog

import (
	"bytes"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestPageCacheReturnsEntryWithinTTL(t *testing.T) {
	clock := newFakeClock()
	cache := NewPageCache(20 * time.Second)
	cache.SetClock(clock.Now)

	cache.Set("/", []byte("rendered page"))

	clock.Advance(19 * time.Second)
	body, ok := cache.Get("/")
	if !ok {
		t.Fatal("expected a hit inside the TTL window")
	}
	if !bytes.Equal(body, []byte("rendered page")) {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestPageCacheExpiresAfterTTL(t *testing.T) {
	clock := newFakeClock()
	cache := NewPageCache(20 * time.Second)
	cache.SetClock(clock.Now)

	cache.Set("/", []byte("rendered page"))
	clock.Advance(21 * time.Second)

	if _, ok := cache.Get("/"); ok {
		t.Fatal("expected a miss after the TTL elapsed")
	}
}

func TestPageCacheFlushDropsAllEntries(t *testing.T) {
	cache := NewPageCache(time.Minute)
	cache.Set("/", []byte("a"))
	cache.Set("/?page=2", []byte("b"))

	cache.Flush()

	if _, ok := cache.Get("/"); ok {
		t.Fatal("expected flush to drop /")
	}
	if _, ok := cache.Get("/?page=2"); ok {
		t.Fatal("expected flush to drop /?page=2")
	}
}

func TestPageCacheKeysAreIndependent(t *testing.T) {
	cache := NewPageCache(time.Minute)
	cache.Set("/", []byte("first"))
	cache.Set("/?page=2", []byte("second"))

	body, ok := cache.Get("/?page=2")
	if !ok || string(body) != "second" {
		t.Fatalf("expected second page entry, got %q (hit=%v)", body, ok)
	}
}

func TestPageCacheDisabledWhenTTLZero(t *testing.T) {
	cache := NewPageCache(0)
	cache.Set("/", []byte("a"))
	if _, ok := cache.Get("/"); ok {
		t.Fatal("zero TTL cache should never store")
	}
}

func TestPageCacheCopiesStoredBody(t *testing.T) {
	cache := NewPageCache(time.Minute)
	body := []byte("original")
	cache.Set("/", body)
	body[0] = 'X'

	got, _ := cache.Get("/")
	if string(got) != "original" {
		t.Fatalf("cache entry was mutated through the caller's slice: %q", got)
	}
}
