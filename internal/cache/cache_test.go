package cache

import (
	"slices"
	"testing"
)

func TestCacheGetSet(t *testing.T) {
	c := New[string, int](10, nil)
	c.Set("blur", 42)

	if v, ok := c.Get("blur"); !ok || v != 42 {
		t.Errorf("Get(blur) = %d, %v, want 42, true", v, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("Get(missing) ok = true, want false")
	}

	s := c.Stats()
	if s.Hits != 1 || s.Misses != 1 {
		t.Errorf("Stats = %+v, want 1 hit and 1 miss", s)
	}
}

func TestCacheGetOrCreate(t *testing.T) {
	c := New[uint64, string](10, nil)
	created := 0
	create := func() string {
		created++
		return "program"
	}

	for range 3 {
		if v := c.GetOrCreate(7, create); v != "program" {
			t.Errorf("GetOrCreate = %q, want program", v)
		}
	}
	if created != 1 {
		t.Errorf("create called %d times, want 1", created)
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	var evicted []string
	c := New[string, int](2, func(k string, _ int) { evicted = append(evicted, k) })

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	if !slices.Equal(evicted, []string{"b"}) {
		t.Errorf("evicted = %v, want [b]", evicted)
	}
	if got := c.Keys(); !slices.Equal(got, []string{"c", "a"}) {
		t.Errorf("Keys() = %v, want [c a]", got)
	}
	if c.Stats().Evictions != 1 {
		t.Errorf("Evictions = %d, want 1", c.Stats().Evictions)
	}
}

func TestCacheDeleteAndClear(t *testing.T) {
	var evicted []int
	c := New[int, int](0, func(k, _ int) { evicted = append(evicted, k) })
	for i := range 4 {
		c.Set(i, i*i)
	}

	if !c.Delete(2) {
		t.Error("Delete(2) = false, want true")
	}
	if c.Delete(2) {
		t.Error("second Delete(2) = true, want false")
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", c.Len())
	}
	if !slices.Equal(evicted, []int{2, 0, 1, 3}) {
		t.Errorf("evicted = %v, want [2 0 1 3]", evicted)
	}
}

func TestCacheUnlimited(t *testing.T) {
	c := New[int, int](0, nil)
	for i := range 1000 {
		c.Set(i, i)
	}
	if c.Len() != 1000 {
		t.Errorf("Len() = %d, want 1000", c.Len())
	}
}
