package lru

import (
	"container/list"
	"sync"
)

type listEntry[K comparable, V any] struct {
	key   K
	value V
}

// Cache is a thread-safe, fixed-capacity cache that evicts
// the least recently used entry first.
type Cache[K comparable, V any] struct {
	capacity int
	mu       sync.Mutex
	order    *list.List
	index    map[K]*list.Element
}

func NewCache[K comparable, V any](capacity int) *Cache[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	return &Cache[K, V]{
		capacity: capacity,
		order:    list.New(),
		index:    make(map[K]*list.Element, capacity),
	}
}

func (c *Cache[K, V]) addUnsafe(key K, value V) {
	if element, ok := c.index[key]; ok {
		element.Value.(*listEntry[K, V]).value = value
		c.order.MoveToFront(element)
		return
	}

	if c.order.Len() >= c.capacity {
		c.evictUnsafe()
	}

	c.index[key] = c.order.PushFront(&listEntry[K, V]{key: key, value: value})
}

func (c *Cache[K, V]) evictUnsafe() {
	element := c.order.Back()
	if element == nil {
		return
	}
	c.order.Remove(element)
	delete(c.index, element.Value.(*listEntry[K, V]).key)
}

func (c *Cache[K, V]) Add(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.addUnsafe(key, value)
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	element, ok := c.index[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.order.MoveToFront(element)
	return element.Value.(*listEntry[K, V]).value, true
}

// GetOrLoad returns the cached value for key or calls load and caches
// its result. Errors are not cached.
func (c *Cache[K, V]) GetOrLoad(key K, load func() (V, error)) (V, error) {
	if value, ok := c.Get(key); ok {
		return value, nil
	}

	value, err := load()
	if err != nil {
		return value, err
	}

	c.Add(key, value)
	return value, nil
}

func (c *Cache[K, V]) Delete(key K) (present bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	element, ok := c.index[key]
	if !ok {
		return false
	}
	c.order.Remove(element)
	delete(c.index, key)
	return true
}

func (c *Cache[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	c.index = make(map[K]*list.Element, c.capacity)
}

func (c *Cache[K, V]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Keys returns keys from the least to the most recently used.
func (c *Cache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]K, 0, c.order.Len())
	for element := c.order.Back(); element != nil; element = element.Prev() {
		keys = append(keys, element.Value.(*listEntry[K, V]).key)
	}
	return keys
}
