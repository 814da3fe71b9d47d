package tree

// SpeculativeCache wraps a base NodeCache and isolates trial writes from it:
// reads check an overlay of writes made during speculation, then an injected
// set of parent-speculative nodes the caller seeded ahead of time, and only
// then fall through to the base cache. Writes go only to the overlay, and
// Clear only ever touches the overlay and injected maps - the base cache is
// never evicted from or mutated by a speculative run, per §4.6 and §9's
// isolation guarantee.
type SpeculativeCache struct {
	base     NodeCache // may be nil
	overlay  map[NodeKey]Node
	injected map[NodeKey]Node
}

// NewSpeculativeCache wraps base in a fresh, empty overlay.
func NewSpeculativeCache(base NodeCache) *SpeculativeCache {
	return &SpeculativeCache{
		base:     base,
		overlay:  make(map[NodeKey]Node),
		injected: make(map[NodeKey]Node),
	}
}

// Inject pre-seeds a node representing parent speculative state that has not
// been committed to the base cache, so a chain of speculative roots can
// build on one another without ever touching the shared cache.
func (c *SpeculativeCache) Inject(key NodeKey, node Node) {
	c.injected[key] = node
}

// Get reads overlay, then injected, then the base cache, in that order. A
// read that falls through to the base cache may promote that entry within
// the base - acceptable because a node resolved there is committed state,
// not speculative.
func (c *SpeculativeCache) Get(key NodeKey) (Node, bool) {
	if n, ok := c.overlay[key]; ok {
		return n, true
	}
	if n, ok := c.injected[key]; ok {
		return n, true
	}
	if c.base != nil {
		return c.base.Get(key)
	}
	return nil, false
}

// Put writes only to the overlay; the base cache is never touched by a
// speculative write.
func (c *SpeculativeCache) Put(key NodeKey, node Node) {
	c.overlay[key] = node
}

// Clear empties the overlay and injected maps. The base cache is untouched.
func (c *SpeculativeCache) Clear() {
	c.overlay = make(map[NodeKey]Node)
	c.injected = make(map[NodeKey]Node)
}

// Size reports the number of entries visible only through this overlay
// (i.e. excluding whatever is in the base cache), which is what lets callers
// verify the base cache's size is unchanged after a speculative run.
func (c *SpeculativeCache) Size() int {
	return len(c.overlay) + len(c.injected)
}

var _ NodeCache = (*SpeculativeCache)(nil)
