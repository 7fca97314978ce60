package tiles

import (
	"container/list"
	"sync"
)

// Address identifies a tile in consumer-facing (XYZ, top-origin) coordinates.
// Cache keys always use the pre-flip address so the TMS conversion is applied
// exactly once, on the store lookup path.
type Address struct {
	Zoom   int
	Column int
	Row    int
}

// CacheStats is a snapshot of cache occupancy and effectiveness.
type CacheStats struct {
	Entries int
	Bytes   int64
	Hits    int64
	Misses  int64
}

type cacheEntry struct {
	addr Address
	data []byte
}

// lruCache is a mutex-guarded LRU bounded by both total byte budget and
// entry count. A single oversized blob that exceeds the byte budget on its
// own is not cached at all rather than evicting the entire working set.
type lruCache struct {
	mu         sync.Mutex
	maxBytes   int64
	maxEntries int
	bytes      int64
	order      *list.List // front = most recently used
	entries    map[Address]*list.Element
	hits       int64
	misses     int64
}

func newLRUCache(maxBytes int64, maxEntries int) *lruCache {
	return &lruCache{
		maxBytes:   maxBytes,
		maxEntries: maxEntries,
		order:      list.New(),
		entries:    make(map[Address]*list.Element),
	}
}

func (c *lruCache) get(addr Address) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[addr]
	if !ok {
		c.misses++
		return nil, false
	}
	c.order.MoveToFront(el)
	c.hits++
	return el.Value.(*cacheEntry).data, true
}

func (c *lruCache) put(addr Address, data []byte) {
	if int64(len(data)) > c.maxBytes {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[addr]; ok {
		old := el.Value.(*cacheEntry)
		c.bytes += int64(len(data)) - int64(len(old.data))
		old.data = data
		c.order.MoveToFront(el)
		c.evictLocked()
		return
	}

	el := c.order.PushFront(&cacheEntry{addr: addr, data: data})
	c.entries[addr] = el
	c.bytes += int64(len(data))
	c.evictLocked()
}

// evictLocked drops least-recently-used entries until both bounds hold.
func (c *lruCache) evictLocked() {
	for c.bytes > c.maxBytes || c.order.Len() > c.maxEntries {
		el := c.order.Back()
		if el == nil {
			return
		}
		entry := el.Value.(*cacheEntry)
		c.order.Remove(el)
		delete(c.entries, entry.addr)
		c.bytes -= int64(len(entry.data))
	}
}

func (c *lruCache) stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{
		Entries: c.order.Len(),
		Bytes:   c.bytes,
		Hits:    c.hits,
		Misses:  c.misses,
	}
}
