// Package adapter is the legacy accumulator facade over package tree: callers
// Put one key/value at a time as they discover changes during a block or
// transaction, then flush everything accumulated so far with one call to
// CalculateRoot. It exists because most callers in this corpus build up
// state changes incrementally and only need a root hash at block
// boundaries, not a pre-sorted batch up front.
package adapter

import (
	"fmt"
	"log"
	"sync"

	"github.com/Praexor/xook/tree"
)

// pendingUpdate is one entry accumulated by Put, keyed by the hash of the
// raw key it was given under.
type pendingUpdate struct {
	rawKeyHash tree.Hash
	value      tree.Hash
	delete     bool
}

// Adapter buffers Put calls and flushes them into a tree.Tree in sorted,
// deduplicated batches. The last Put for a given raw key within one flush
// wins, matching the legacy accumulator's overwrite semantics.
type Adapter struct {
	tree   *tree.Tree
	cache  tree.NodeCache
	logger *log.Logger

	mu      sync.Mutex
	pending map[tree.Hash]pendingUpdate
}

// NewAdapter constructs an Adapter backed by a fresh tree.Tree. A nil
// logger defaults to log.Default(), matching tree.NewTree.
func NewAdapter(config tree.Config, reader tree.TreeReader, logger *log.Logger) *Adapter {
	if logger == nil {
		logger = log.Default()
	}
	cache := tree.NewNodeCache(config.NodeCacheSize)
	return &Adapter{
		tree:    tree.NewTree(config, reader, cache, logger),
		cache:   cache,
		logger:  logger,
		pending: make(map[tree.Hash]pendingUpdate),
	}
}

// Put buffers a pending write for rawKey. A nil value buffers a delete.
// Any non-nil value must be exactly tree.HashSize bytes - this adapter
// speaks in value hashes, not raw values, and rejects anything else rather
// than silently padding or truncating it.
func (a *Adapter) Put(rawKey, value []byte) error {
	var u pendingUpdate
	u.rawKeyHash = tree.HashKey(rawKey)
	if value == nil {
		u.delete = true
	} else if len(value) != tree.HashSize {
		return fmt.Errorf("%w: value has length %d, want %d", tree.ErrInvalidInput, len(value), tree.HashSize)
	} else {
		copy(u.value[:], value)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.pending[u.rawKeyHash] = u
	return nil
}

// PendingCount reports how many distinct keys are currently buffered.
func (a *Adapter) PendingCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending)
}

func (a *Adapter) flush() []tree.Update {
	a.mu.Lock()
	defer a.mu.Unlock()
	updates := make([]tree.Update, 0, len(a.pending))
	for _, u := range a.pending {
		updates = append(updates, tree.Update{Key: u.rawKeyHash, Value: u.value, Delete: u.delete})
	}
	a.pending = make(map[tree.Hash]pendingUpdate)
	return updates
}

// CalculateRoot merges explicitUpdates with every buffered Put into a single
// batch against the tree and returns the resulting nodes the caller must
// persist. The batch is built on top of baseRoot if given; otherwise it is
// built on top of baseVersion's already-committed root, exactly as before
// baseRoot existed. A key present in both explicitUpdates and the buffered
// Puts is resolved in explicitUpdates' favor, since it was supplied at the
// call site rather than accumulated earlier.
func (a *Adapter) CalculateRoot(explicitUpdates []tree.Update, baseRoot *tree.RootRef, baseVersion, newVersion uint64) (tree.Batch, error) {
	updates := append(a.flush(), explicitUpdates...)
	var batch tree.Batch
	var err error
	if baseRoot != nil {
		batch, err = a.tree.PutValueSetFromRoot(updates, newVersion, *baseRoot)
	} else {
		batch, err = a.tree.PutValueSet(updates, baseVersion, newVersion)
	}
	if err != nil {
		a.logger.Printf("adapter: CalculateRoot(base=%d, new=%d) failed: %v", baseVersion, newVersion, err)
	}
	return batch, err
}

// CalculateRootSpeculative computes the same result as CalculateRoot but in
// isolation from this Adapter's shared cache: parentNodes seeds nodes a
// caller has already computed speculatively (e.g. a sibling block still
// awaiting finality) without those nodes ever becoming visible outside this
// one call. baseRoot, when given, lets this call build on top of a parent
// root that was itself only ever speculative - its RootRef comes from that
// parent call's Batch.NewRootRef, and its nodes belong in parentNodes - so a
// chain of speculative roots can build on one another without any of them
// ever being committed to the tree's own root ledger.
func (a *Adapter) CalculateRootSpeculative(baseVersion, newVersion uint64, baseRoot *tree.RootRef, parentNodes map[tree.NodeKey]tree.Node) (tree.Batch, error) {
	updates := a.flush()
	overlay := tree.NewSpeculativeCache(a.cache)
	for k, n := range parentNodes {
		overlay.Inject(k, n)
	}
	if baseRoot != nil {
		return a.tree.PutValueSetSpeculativeFromRoot(updates, newVersion, *baseRoot, overlay)
	}
	return a.tree.PutValueSetSpeculative(updates, baseVersion, newVersion, overlay)
}

// Get resolves a raw key against the committed tree at version.
func (a *Adapter) Get(rawKey []byte, version uint64) (tree.Hash, bool, error) {
	return a.tree.Get(tree.HashKey(rawKey), version)
}

// GetRootHash returns the root hash committed at version.
func (a *Adapter) GetRootHash(version uint64) (tree.Hash, error) {
	return a.tree.GetRootHash(version)
}
