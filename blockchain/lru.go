// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"container/list"
	"sync"
)

// lruCache is a fixed-capacity, concurrency-safe least-recently-used cache
// keyed by an arbitrary comparable key. ChainDB keeps two of these (by hash
// and by height) plus a third for decoded Coins bundles (not their serialized
// bytes), each sized
// (retarget_interval+1)*2+100 so that retargeting, majority-window checks,
// locator construction, and a reasonable reorg depth all hit cache.
type lruCache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	items    map[interface{}]*list.Element
}

type lruEntry struct {
	key   interface{}
	value interface{}
}

// newLRUCache creates a cache holding at most capacity entries.
func newLRUCache(capacity int) *lruCache {
	return &lruCache{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[interface{}]*list.Element, capacity),
	}
}

// get returns the cached value for key and moves it to the front of the
// recency list.
func (c *lruCache) get(key interface{}) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*lruEntry).value, true
}

// add inserts or updates key, evicting the least-recently-used entry if the
// cache is at capacity.
func (c *lruCache) add(key, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		elem.Value.(*lruEntry).value = value
		c.order.MoveToFront(elem)
		return
	}

	elem := c.order.PushFront(&lruEntry{key: key, value: value})
	c.items[key] = elem

	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(*lruEntry).key)
		}
	}
}

// remove evicts key if present.
func (c *lruCache) remove(key interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.order.Remove(elem)
		delete(c.items, key)
	}
}
