package cache

import (
	"testing"
	"time"
)

func TestLRUBasic(t *testing.T) {
	c := NewLRU(3, time.Hour)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("expected a=1, got %v (ok=%v)", v, ok)
	}
	if c.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", c.Len())
	}
}

func TestLRUEviction(t *testing.T) {
	c := NewLRU(2, time.Hour)

	c.Set("a", 1)
	c.Set("b", 2)
	// Touch "a" so "b" becomes the eviction candidate.
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("expected b to be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected a to survive")
	}
}

func TestLRUExpiry(t *testing.T) {
	c := NewLRU(10, time.Millisecond)

	c.Set("a", 1)
	time.Sleep(5 * time.Millisecond)

	if _, ok := c.Get("a"); ok {
		t.Fatal("expected entry to expire")
	}
}

func TestLRUClear(t *testing.T) {
	c := NewLRU(10, time.Hour)
	c.Set("a", 1)
	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("expected empty cache, got %d entries", c.Len())
	}
}

func TestHashKeyStable(t *testing.T) {
	if HashKey("prompt") != HashKey("prompt") {
		t.Fatal("hash key should be stable")
	}
	if HashKey("prompt") == HashKey("other") {
		t.Fatal("different prompts should hash differently")
	}
}
