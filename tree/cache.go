package tree

import lru "github.com/hashicorp/golang-lru"

//go:generate mockgen -source cache.go -destination cache_mocks.go -package tree

// NodeCache is a bounded, concurrency-safe cache of nodes keyed by NodeKey.
// Get promotes the fetched entry to most-recently-used; Put inserts or
// replaces and evicts the least-recently-used entry once over capacity.
// Many concurrent Gets may run; Put and Clear are exclusive with everything
// else, because Get itself mutates LRU order and so cannot be treated as a
// read-only operation.
type NodeCache interface {
	Get(key NodeKey) (Node, bool)
	Put(key NodeKey, node Node)
	Clear()
	Size() int
}

// lruNodeCache implements NodeCache atop hashicorp/golang-lru's classic
// Cache, which already serializes Get/Add/Purge behind a single mutex -
// exactly the "lock granularity is the entire cache" contract §4.5 and §9
// call for, without this module needing to reimplement a linked-list LRU by
// hand.
type lruNodeCache struct {
	cache *lru.Cache
}

// NewNodeCache constructs a NodeCache bounded to capacity entries. A
// capacity less than 1 is treated as 1, matching the teacher's
// newNodeCache(capacity) clamp in state/mpt/node_cache.go.
func NewNodeCache(capacity int) NodeCache {
	if capacity < 1 {
		capacity = 1
	}
	c, err := lru.New(capacity)
	if err != nil {
		// lru.New only errors for a non-positive size, which the clamp above
		// already rules out.
		panic(err)
	}
	return &lruNodeCache{cache: c}
}

func (c *lruNodeCache) Get(key NodeKey) (Node, bool) {
	v, ok := c.cache.Get(key)
	if !ok {
		return nil, false
	}
	return v.(Node), true
}

func (c *lruNodeCache) Put(key NodeKey, node Node) {
	c.cache.Add(key, node)
}

func (c *lruNodeCache) Clear() {
	c.cache.Purge()
}

func (c *lruNodeCache) Size() int {
	return c.cache.Len()
}
