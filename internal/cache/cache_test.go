package cache

import "testing"

func TestPutEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[string, int](2)
	c.Put("alpha", 1)
	c.Put("beta", 2)

	// Touch alpha so beta becomes the oldest.
	if v, ok := c.Get("alpha"); !ok || v != 1 {
		t.Fatalf("Get(alpha) = %d, %v", v, ok)
	}
	c.Put("gamma", 3)

	if _, ok := c.Get("beta"); ok {
		t.Fatalf("expected beta to be evicted")
	}
	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}
}

func TestPutUpdatesExistingEntryWithoutGrowing(t *testing.T) {
	c := NewLRUCache[string, string](1)
	c.Put("alpha", "x")
	c.Put("alpha", "y")
	if v, _ := c.Get("alpha"); v != "y" || c.Len() != 1 {
		t.Fatalf("Get(alpha) = %q, Len = %d", v, c.Len())
	}

	c.Remove("alpha")
	c.Remove("missing")
	if _, ok := c.Get("alpha"); ok || c.Len() != 0 {
		t.Fatalf("Remove left alpha behind")
	}
}

func TestZeroSizeHoldsOne(t *testing.T) {
	c := NewLRUCache[int, int](0)
	c.Put(1, 1)
	if _, ok := c.Get(1); !ok {
		t.Fatalf("a zero-sized cache should still hold the latest entry")
	}
}
