package tilecache

import (
	"container/list"
	"sync"

	"rasterview/pkg/metrics"
)

const DefaultMaxSize = 500

// Stats is a snapshot of cache usage counters.
type Stats struct {
	Hits      uint64  `json:"hits"`
	Misses    uint64  `json:"misses"`
	Evictions uint64  `json:"evictions"`
	Size      int     `json:"size"`
	MaxSize   int     `json:"maxSize"`
	HitRate   float64 `json:"hitRate"`
}

type entry struct {
	key   Key
	value []byte
}

// LRU is a bounded tile cache with least-recently-used eviction and
// hit/miss/eviction accounting. Tile requests overlap, so access is
// guarded by a mutex.
type LRU struct {
	mu        sync.Mutex
	maxSize   int
	order     *list.List // front = most recently used
	items     map[Key]*list.Element
	hits      uint64
	misses    uint64
	evictions uint64
}

var _ Store = (*LRU)(nil)

func NewLRU(maxSize int) *LRU {
	if maxSize < 1 {
		maxSize = DefaultMaxSize
	}
	return &LRU{
		maxSize: maxSize,
		order:   list.New(),
		items:   make(map[Key]*list.Element),
	}
}

// Get returns the cached tile and promotes it to most recently used.
func (c *LRU) Get(k Key) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[k]
	if !ok {
		c.misses++
		metrics.TileCacheMisses.Inc()
		return nil, false, nil
	}

	c.hits++
	metrics.TileCacheHits.Inc()
	c.order.MoveToFront(el)
	return el.Value.(*entry).value, true, nil
}

// Set inserts or updates a tile. Updating an existing key promotes it
// without counting as an eviction; inserting at capacity evicts the
// least recently used entry first.
func (c *LRU) Set(k Key, v []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[k]; ok {
		el.Value.(*entry).value = v
		c.order.MoveToFront(el)
		return nil
	}

	if c.order.Len() >= c.maxSize {
		oldest := c.order.Back()
		if oldest != nil {
			c.removeElement(oldest)
			c.evictions++
			metrics.TileCacheEvictions.Inc()
		}
	}

	c.items[k] = c.order.PushFront(&entry{key: k, value: v})
	return nil
}

// Has reports whether a tile is cached without touching stats or order.
func (c *LRU) Has(k Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.items[k]
	return ok
}

// Delete removes a tile. No stats effect.
func (c *LRU) Delete(k Key) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[k]
	if !ok {
		return false, nil
	}
	c.removeElement(el)
	return true, nil
}

// DeleteLayer removes every tile cached for a layer. No stats effect.
func (c *LRU) DeleteLayer(layerID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var next *list.Element
	for el := c.order.Front(); el != nil; el = next {
		next = el.Next()
		if el.Value.(*entry).key.LayerID == layerID {
			c.removeElement(el)
		}
	}
	return nil
}

// Clear empties the cache. Counters are kept; use ResetStats to zero them.
func (c *LRU) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	c.items = make(map[Key]*list.Element)
	return nil
}

// Len returns the current entry count.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.order.Len()
}

func (c *LRU) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Size:      c.order.Len(),
		MaxSize:   c.maxSize,
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total) * 100
	}
	return s
}

// ResetStats zeroes the counters without touching stored entries.
func (c *LRU) ResetStats() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.hits = 0
	c.misses = 0
	c.evictions = 0
}

func (c *LRU) removeElement(el *list.Element) {
	c.order.Remove(el)
	delete(c.items, el.Value.(*entry).key)
}
