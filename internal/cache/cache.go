// Package cache provides thread-safe generic caching functionality and markdown rendering cache.
package cache

import "sync"

type Cache[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]V
}

func NewCache[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{
		items: make(map[K]V),
	}
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	val, ok := c.items[key]
	return val, ok
}

func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
}

func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[K]V)
}

func (c *Cache[K, V]) SetTo(items map[K]V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = items
}

func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Retain drops every entry whose key keep rejects and returns how many went.
func (c *Cache[K, V]) Retain(keep func(K) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k := range c.items {
		if !keep(k) {
			delete(c.items, k)
			n++
		}
	}
	return n
}

// RenderedContent is the HTML of one rendered markdown document.
type RenderedContent struct {
	HTML []byte
}

// Rendered articles are keyed by the hash of their markdown, so an edited
// article never hits a stale entry.
var renderedMarkdownCache = NewCache[string, *RenderedContent]()

func GetRenderedMarkdown(contentHash string) (*RenderedContent, bool) {
	return renderedMarkdownCache.Get(contentHash)
}

func SetRenderedMarkdown(contentHash string, html []byte) {
	renderedMarkdownCache.Set(contentHash, &RenderedContent{HTML: html})
}

// RetainRenderedMarkdown keeps only the renders whose hash is in live.
func RetainRenderedMarkdown(live map[string]bool) int {
	return renderedMarkdownCache.Retain(func(hash string) bool { return live[hash] })
}

func ClearRenderedMarkdownCache() {
	renderedMarkdownCache.Clear()
}
