package cache

import (
	"container/list"
	"sync"
)

// FIFO is a bounded in-memory map that evicts strictly in insertion order.
// Reads never refresh an entry's position; re-putting an existing key only
// replaces its value.
type FIFO[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // of K, oldest at front
	entries  map[K]V
}

// NewFIFO creates a cache holding at most capacity entries (minimum 1).
func NewFIFO[K comparable, V any](capacity int) *FIFO[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	return &FIFO[K, V]{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[K]V, capacity),
	}
}

// Get returns the value for key.
func (c *FIFO[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

// Put stores value under key. When the cache is full and key is new, the
// oldest entry is evicted first; the evicted key is returned.
func (c *FIFO[K, V]) Put(key K, value V) (evicted K, didEvict bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		c.entries[key] = value
		return evicted, false
	}

	if len(c.entries) >= c.capacity {
		oldest := c.order.Front()
		evicted = c.order.Remove(oldest).(K)
		delete(c.entries, evicted)
		didEvict = true
	}

	c.order.PushBack(key)
	c.entries[key] = value
	return evicted, didEvict
}

// Len returns the number of cached entries.
func (c *FIFO[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops every entry.
func (c *FIFO[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	clear(c.entries)
}
