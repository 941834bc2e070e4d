package cache

import (
	"testing"
	"time"
)

func TestLRUGetSet(t *testing.T) {
	c := NewLRU[string](10, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("expected miss for unknown key")
	}
	c.Set("a", "1")
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Errorf("Get(a) = %q, %v; want 1, true", v, ok)
	}
	c.Set("a", "2")
	if v, _ := c.Get("a"); v != "2" {
		t.Errorf("Get(a) after overwrite = %q, want 2", v)
	}
	if c.Size() != 1 {
		t.Errorf("Size() = %d, want 1", c.Size())
	}
}

func TestLRUEviction(t *testing.T) {
	c := NewLRU[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	// Touch a so b is the least recently used.
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("expected a to survive")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("expected c to survive")
	}
}

func TestLRUTTL(t *testing.T) {
	c := NewLRU[int](10, 5*time.Millisecond)
	c.Set("a", 1)
	time.Sleep(10 * time.Millisecond)
	if _, ok := c.Get("a"); ok {
		t.Error("expected expired entry to miss")
	}
	if c.Size() != 0 {
		t.Errorf("Size() = %d, want 0 after expired get", c.Size())
	}
}

func TestLRUDeletePrefix(t *testing.T) {
	c := NewLRU[int](10, time.Minute)
	c.Set("u1:summary", 1)
	c.Set("u1:networth", 2)
	c.Set("u2:summary", 3)

	if n := c.DeletePrefix("u1:"); n != 2 {
		t.Errorf("DeletePrefix = %d, want 2", n)
	}
	if _, ok := c.Get("u1:summary"); ok {
		t.Error("expected u1 entries gone")
	}
	if _, ok := c.Get("u2:summary"); !ok {
		t.Error("expected u2 entry to survive")
	}
}

func TestLRUCleanExpired(t *testing.T) {
	c := NewLRU[int](10, 5*time.Millisecond)
	c.Set("a", 1)
	c.Set("b", 2)
	time.Sleep(10 * time.Millisecond)
	c.Set("c", 3) // fresh

	if n := c.CleanExpired(); n != 2 {
		t.Errorf("CleanExpired = %d, want 2", n)
	}
	if c.Size() != 1 {
		t.Errorf("Size() = %d, want 1", c.Size())
	}
}
