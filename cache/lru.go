package cache

import (
	"container/list"
	"sync"
)

// LRU is a thread-safe, size-bounded least-recently-used map
type LRU[V any] struct {
	size      int
	evictList *list.List
	items     map[string]*list.Element
	onEvict   func(key string, value V)
	mu        sync.Mutex
}

// lruEntry is stored in the eviction list
type lruEntry[V any] struct {
	key   string
	value V
}

// NewLRU creates an LRU holding at most size items. A size below 1 is treated as 1.
func NewLRU[V any](size int) *LRU[V] {
	if size < 1 {
		size = 1
	}
	return &LRU[V]{
		size:      size,
		evictList: list.New(),
		items:     make(map[string]*list.Element),
	}
}

// OnEvict registers a callback invoked when an item is pushed out by capacity
func (c *LRU[V]) OnEvict(fn func(key string, value V)) {
	c.mu.Lock()
	c.onEvict = fn
	c.mu.Unlock()
}

// Get retrieves a value and marks it as most recently used
func (c *LRU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.evictList.MoveToFront(node)
	return node.Value.(*lruEntry[V]).value, true
}

// Put adds or replaces a value
func (c *LRU[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if node, ok := c.items[key]; ok {
		c.evictList.MoveToFront(node)
		node.Value.(*lruEntry[V]).value = value
		return
	}

	node := c.evictList.PushFront(&lruEntry[V]{key: key, value: value})
	c.items[key] = node

	if c.evictList.Len() > c.size {
		c.removeOldest()
	}
}

// Delete removes key and reports whether it was present
func (c *LRU[V]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, ok := c.items[key]
	if !ok {
		return false
	}
	c.evictList.Remove(node)
	delete(c.items, key)
	return true
}

// removeOldest drops the least recently used item; caller holds mu
func (c *LRU[V]) removeOldest() {
	node := c.evictList.Back()
	if node == nil {
		return
	}
	c.evictList.Remove(node)
	kv := node.Value.(*lruEntry[V])
	delete(c.items, kv.key)
	if c.onEvict != nil {
		c.onEvict(kv.key, kv.value)
	}
}

// Clear removes all items
func (c *LRU[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.evictList.Init()
}

// Len returns the number of items held
func (c *LRU[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.evictList.Len()
}
