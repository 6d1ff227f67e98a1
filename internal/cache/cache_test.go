package cache

import (
	"bytes"
	"fmt"
	"sync"
	"testing"
)

func TestCache_BasicOperations(t *testing.T) {
	cache := NewCache[string, int]()

	t.Run("Missing key", func(t *testing.T) {
		if v, ok := cache.Get("missing"); ok || v != 0 {
			t.Errorf("Expected zero value and false, got %d %v", v, ok)
		}
	})

	t.Run("Set, overwrite and delete", func(t *testing.T) {
		cache.Set("a", 1)
		cache.Set("a", 2)
		if v, ok := cache.Get("a"); !ok || v != 2 {
			t.Errorf("Expected 2, got %d %v", v, ok)
		}
		cache.Delete("a")
		cache.Delete("a")
		if _, ok := cache.Get("a"); ok {
			t.Error("Expected key to be deleted")
		}
	})

	t.Run("SetTo and Clear", func(t *testing.T) {
		cache.SetTo(map[string]int{"x": 1, "y": 2})
		if cache.Len() != 2 {
			t.Errorf("Expected 2 items, got %d", cache.Len())
		}
		cache.Clear()
		if cache.Len() != 0 {
			t.Errorf("Expected empty cache, got %d", cache.Len())
		}
	})
}

func TestCache_Retain(t *testing.T) {
	cache := NewCache[int, string]()
	for i := 0; i < 10; i++ {
		cache.Set(i, fmt.Sprint(i))
	}

	removed := cache.Retain(func(k int) bool { return k%2 == 0 })
	if removed != 5 {
		t.Errorf("Expected 5 removed, got %d", removed)
	}
	for i := 0; i < 10; i++ {
		_, ok := cache.Get(i)
		if ok != (i%2 == 0) {
			t.Errorf("Key %d present = %v", i, ok)
		}
	}
}

func TestCache_Concurrency(t *testing.T) {
	cache := NewCache[int, int]()
	var wg sync.WaitGroup

	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				key := g*100 + i
				cache.Set(key, i)
				cache.Get(key)
				if i%10 == 0 {
					cache.Retain(func(int) bool { return true })
				}
			}
		}(g)
	}
	wg.Wait()

	if cache.Len() != 800 {
		t.Errorf("Expected 800 items, got %d", cache.Len())
	}
}

func TestRenderedMarkdownCache(t *testing.T) {
	ClearRenderedMarkdownCache()
	defer ClearRenderedMarkdownCache()

	SetRenderedMarkdown("h1", []byte("<p>one</p>"))
	SetRenderedMarkdown("h2", []byte("<p>two</p>"))

	cached, ok := GetRenderedMarkdown("h1")
	if !ok || !bytes.Equal(cached.HTML, []byte("<p>one</p>")) {
		t.Fatalf("Unexpected cache entry %v %v", cached, ok)
	}

	if n := RetainRenderedMarkdown(map[string]bool{"h2": true}); n != 1 {
		t.Errorf("Expected 1 stale render removed, got %d", n)
	}
	if _, ok := GetRenderedMarkdown("h1"); ok {
		t.Error("Expected h1 to be dropped")
	}
	if _, ok := GetRenderedMarkdown("h2"); !ok {
		t.Error("Expected h2 to be kept")
	}
}

func TestStaticHash(t *testing.T) {
	SetStaticHash("/static/site.css", "abc")
	if h, ok := GetStaticHash("/static/site.css"); !ok || h != "abc" {
		t.Errorf("Expected hash abc, got %q %v", h, ok)
	}
	if _, ok := GetStaticHash("/static/missing.js"); ok {
		t.Error("Did not expect a hash for an unknown file")
	}
}
