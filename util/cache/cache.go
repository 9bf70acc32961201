// Package cache is a small concurrent key value cache. Keys are
// case-insensitive so addresses hit regardless of checksum casing.
package cache

import (
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

type Cache[V any] struct {
	mu    sync.RWMutex
	data  map[string]V
	group singleflight.Group
}

func New[V any]() *Cache[V] {
	return &Cache[V]{data: map[string]V{}}
}

func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, found := c.data[strings.ToLower(key)]
	return value, found
}

func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[strings.ToLower(key)] = value
}

func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// GetOrLoad returns the cached value for key or calls load once, however
// many goroutines ask concurrently. Errors are not cached.
func (c *Cache[V]) GetOrLoad(key string, load func() (V, error)) (V, error) {
	if value, found := c.Get(key); found {
		return value, nil
	}
	k := strings.ToLower(key)
	v, err, _ := c.group.Do(k, func() (interface{}, error) {
		if value, found := c.Get(k); found {
			return value, nil
		}
		value, err := load()
		if err != nil {
			return value, err
		}
		c.Set(k, value)
		return value, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}
