package tree

import (
	"log"
	"sort"
	"sync"

	"golang.org/x/exp/maps"
)

// Update is a single pending change in a batch passed to PutValueSet. A zero
// Value together with Delete set to false is a legitimate value (the engine
// never interprets ValueHash's contents); Delete is the only signal for
// removal.
type Update struct {
	Key    Hash
	Value  Hash
	Delete bool
}

// Batch is the result of applying a set of updates: the resulting root hash,
// every node the caller must persist under its NodeKey, and every node key
// superseded by the batch that the caller may now consider stale (but is not
// obliged to delete - pruning historical versions is out of scope).
//
// NewRootRef carries the same hash as NewRoot together with the version and
// path the root node actually lives at. A committed batch's root is always
// resolvable later through GetRootRef(newVersion); NewRootRef is what lets a
// speculative batch - whose root is never committed to the tree's own
// roots map - be threaded into a further speculative call as that call's
// base root, chaining one trial on top of another.
type Batch struct {
	NewRoot    Hash
	NewRootRef RootRef
	NewNodes   map[NodeKey]Node
	StaleNodes map[NodeKey]struct{}
}

// Tree is the versioned, sparse, radix-16 authenticated tree engine. It
// tracks the root hash of every version it has committed, resolves nodes
// through a NodeCache backed by a TreeReader, and applies batches of updates
// with an explicit, non-recursive walk - the depth of any key's path is
// bounded by 2*HashSize nibbles, so the walk's stack never grows past that.
type Tree struct {
	mu     sync.Mutex
	config Config
	reader TreeReader
	cache  NodeCache
	logger *log.Logger

	roots       map[uint64]RootRef
	hasVersion  bool
	lastVersion uint64
}

// NewTree constructs a Tree. A nil cache disables caching entirely (every
// lookup falls through to reader); a nil reader is valid for a tree that
// expects its cache to already hold every node it will ever be asked for,
// mirroring the original's null-reader test mode.
func NewTree(config Config, reader TreeReader, cache NodeCache, logger *log.Logger) *Tree {
	if logger == nil {
		logger = log.Default()
	}
	return &Tree{
		config: config,
		reader: reader,
		cache:  cache,
		logger: logger,
		roots:  make(map[uint64]RootRef),
	}
}

// SetRoot records the root hash of a version the tree did not itself
// compute (e.g. one loaded from a snapshot), so subsequent PutValueSet and
// Get calls can use it as a base. It is the caller's responsibility that
// the corresponding node is resolvable through reader/cache at EmptyPath.
// Use SetRootRef for a root known to sit at some other path.
func (t *Tree) SetRoot(version uint64, root Hash) {
	t.SetRootRef(RootRef{Hash: root, Version: version, Path: EmptyPath})
}

// SetRootRef is SetRoot's general form, for a root whose node does not sit
// at EmptyPath.
func (t *Tree) SetRootRef(ref RootRef) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.roots[ref.Version] = ref
	if !t.hasVersion || ref.Version > t.lastVersion {
		t.hasVersion = true
		t.lastVersion = ref.Version
	}
}

// GetRootHash returns the root hash committed at version.
func (t *Tree) GetRootHash(version uint64) (Hash, error) {
	ref, err := t.GetRootRef(version)
	if err != nil {
		return Hash{}, err
	}
	return ref.Hash, nil
}

// GetRootRef returns the full root reference - hash and storage path -
// committed at version.
func (t *Tree) GetRootRef(version uint64) (RootRef, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ref, ok := t.roots[version]
	if !ok {
		return RootRef{}, ErrUnknownVersion
	}
	return ref, nil
}

// frame is one level of the explicit walk stack: the internal node found at
// path, the version it was resolved from, and which of its nibbles the walk
// is descending through.
type frame struct {
	path    NibblePath
	node    InternalNode
	version uint64
	nibble  byte
}

// workingEntry is one overlay slot in a batch's in-flight working tree.
// deleted distinguishes "known to be absent" from "not yet touched, fall
// through to the base version".
type workingEntry struct {
	node    Node
	deleted bool
}

// PutValueSet applies a batch of updates on top of the root committed at
// baseVersion, producing the nodes of newVersion and committing newVersion
// as this Tree's new latest version. newVersion must be strictly greater
// than the last version this Tree has committed.
func (t *Tree) PutValueSet(updates []Update, baseVersion, newVersion uint64) (Batch, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.putValueSet(t.cache, updates, newVersion, baseVersion, nil, true)
}

// PutValueSetFromRoot is PutValueSet's counterpart for a base root the
// caller names explicitly instead of one already committed to t.roots - the
// same mechanism PutValueSetSpeculativeFromRoot uses, but committing the
// result as newVersion. This is what lets an adapter's calculate_root merge
// an explicit batch against a caller-supplied base_root (§4.7, §4.8) rather
// than always resolving baseVersion through the shared root ledger.
func (t *Tree) PutValueSetFromRoot(updates []Update, newVersion uint64, baseRoot RootRef) (Batch, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.putValueSet(t.cache, updates, newVersion, 0, &baseRoot, true)
}

// PutValueSetSpeculative computes the same result as PutValueSet but reads
// and writes nodes through cache instead of this Tree's own cache, and never
// commits newVersion: t.roots and t.lastVersion are left exactly as they
// were. This is what lets a caller explore a trial root - built from nodes
// it injected into cache ahead of time - without that trial ever becoming
// visible to a concurrent, non-speculative caller of this same Tree.
func (t *Tree) PutValueSetSpeculative(updates []Update, baseVersion, newVersion uint64, cache NodeCache) (Batch, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.putValueSet(cache, updates, newVersion, baseVersion, nil, false)
}

// PutValueSetSpeculativeFromRoot is PutValueSetSpeculative's counterpart for
// chaining onto a parent root that was itself never committed to t.roots.
// baseRoot stands in for the usual t.roots[baseVersion] lookup entirely, so
// a caller can inject a parent speculative root's nodes into cache (see
// SpeculativeCache.Inject) and walk from it without ever registering that
// root on the shared Tree - the nested-speculation case the injected-node
// mechanism exists for.
func (t *Tree) PutValueSetSpeculativeFromRoot(updates []Update, newVersion uint64, baseRoot RootRef, cache NodeCache) (Batch, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.putValueSet(cache, updates, newVersion, 0, &baseRoot, false)
}

func (t *Tree) putValueSet(cache NodeCache, updates []Update, newVersion, baseVersion uint64, explicitBaseRoot *RootRef, commit bool) (Batch, error) {
	if t.hasVersion && newVersion <= t.lastVersion {
		return Batch{}, ErrVersionRegression
	}

	var baseRoot RootRef
	rootExists := false
	if explicitBaseRoot != nil {
		baseRoot = *explicitBaseRoot
		rootExists = !baseRoot.Hash.IsZero()
	} else {
		ref, haveBase := t.roots[baseVersion]
		if t.hasVersion && !haveBase {
			return Batch{}, ErrUnknownVersion
		}
		baseRoot = ref
		rootExists = haveBase && !ref.Hash.IsZero()
	}

	byKey := make(map[Hash]Update, len(updates))
	for _, u := range updates {
		byKey[u.Key] = u
	}
	keys := maps.Keys(byKey)
	sort.Slice(keys, func(i, j int) bool {
		return NibblePathFromKey(keys[i][:]).Compare(NibblePathFromKey(keys[j][:])) < 0
	})

	dirty := make(map[NibblePath]workingEntry)
	staleNodes := make(map[NodeKey]struct{})

	root := baseRoot
	for _, k := range keys {
		u := byKey[k]
		var err error
		root, rootExists, err = t.applyUpdate(cache, dirty, staleNodes, root, rootExists, newVersion, u)
		if err != nil {
			return Batch{}, err
		}
	}

	newNodes := make(map[NodeKey]Node)
	var newRoot Hash
	var committedRoot RootRef
	if rootExists {
		newRoot = root.Hash
		committedRoot = RootRef{Hash: root.Hash, Version: root.Version, Path: root.Path}
	} else {
		newRoot = ZeroHash
		committedRoot = RootRef{Hash: ZeroHash, Version: newVersion, Path: EmptyPath}
	}
	for path, e := range dirty {
		if e.deleted {
			continue
		}
		newNodes[NewNodeKey(newVersion, path)] = e.node
	}

	for key, node := range newNodes {
		if cache != nil {
			cache.Put(key, node)
		}
	}

	if commit {
		t.roots[newVersion] = committedRoot
		t.hasVersion = true
		t.lastVersion = newVersion
	}

	if !rootExists {
		t.logger.Printf("tree: batch at version %d collapsed the tree to empty", newVersion)
	}

	return Batch{NewRoot: newRoot, NewRootRef: committedRoot, NewNodes: newNodes, StaleNodes: staleNodes}, nil
}

// resolveNode reads the node at (version, path) through the batch's working
// overlay, then cache, then the reader.
func (t *Tree) resolveNode(cache NodeCache, dirty map[NibblePath]workingEntry, version uint64, path NibblePath) (Node, error) {
	if e, ok := dirty[path]; ok {
		if e.deleted {
			return nil, &MissingNodeError{Key: NewNodeKey(version, path)}
		}
		return e.node, nil
	}
	key := NewNodeKey(version, path)
	if cache != nil {
		if n, ok := cache.Get(key); ok {
			return n, nil
		}
	}
	n, err := readNode(t.reader, key)
	if err != nil {
		return nil, err
	}
	if cache != nil {
		cache.Put(key, n)
	}
	return n, nil
}

// markStaleIfPersisted records path's node at version as stale, unless it
// was itself produced earlier within this same batch (in which case it was
// never persisted and needs no bookkeeping).
func markStaleIfPersisted(dirty map[NibblePath]workingEntry, stale map[NodeKey]struct{}, version uint64, path NibblePath) {
	if _, wasDirty := dirty[path]; wasDirty {
		return
	}
	stale[NewNodeKey(version, path)] = struct{}{}
}

// applyUpdate walks the working tree rooted at baseRoot down to u.Key's
// insertion point using an explicit stack (never recursion), applies the
// single update there, and unwinds the stack fixing up every ancestor's
// children and collapsing any internal node a delete leaves with only one
// child. It returns the RootRef the tree has once the update is applied,
// and whether that root exists at all.
//
// Because a ChildInfo/RootRef's Path may skip several nibbles below its
// parent (see InternalNode's doc comment), the node the walk lands on after
// following a pointer is not guaranteed to actually agree with the key
// being applied over the nibbles that were skipped to reach it - a sibling
// key could have been inserted first and pushed that pointer several
// nibbles deeper than this key shares with it. matchedDepth tracks how far
// the walk has actually confirmed agreement; every iteration re-checks the
// node at curPath against keyPath over [matchedDepth, curPath.Len()) before
// trusting it, and diverts into buildCompressedEdgeSplit the moment that
// check fails instead of dispatching on a nibble that was never verified.
func (t *Tree) applyUpdate(cache NodeCache, dirty map[NibblePath]workingEntry, stale map[NodeKey]struct{}, baseRoot RootRef, rootExists bool, newVersion uint64, u Update) (RootRef, bool, error) {
	keyPath := NibblePathFromKey(u.Key[:])

	var stack []frame
	curPath := baseRoot.Path
	curVersion := baseRoot.Version
	matchedDepth := 0
	haveNode := rootExists
	var cur Node
	if haveNode {
		n, err := t.resolveNode(cache, dirty, curVersion, curPath)
		if err != nil {
			return RootRef{}, rootExists, err
		}
		cur = n
	}
	for haveNode {
		divergeDepth := matchedDepth
		for divergeDepth < curPath.Len() && keyPath.Get(divergeDepth) == curPath.Get(divergeDepth) {
			divergeDepth++
		}
		if divergeDepth < curPath.Len() {
			// keyPath parts ways with whatever this pointer skipped over
			// before even reaching the node it names: the key cannot be
			// present under it, so a delete is a no-op, and an insert
			// splits above the node rather than descending into it.
			if u.Delete {
				return baseRoot, rootExists, nil
			}
			newLeaf := LeafNode{AccountKey: u.Key, ValueHash: u.Value}
			node, path := buildCompressedEdgeSplit(dirty, newVersion, divergeDepth, HashOf(cur), curVersion, curPath, newLeaf, keyPath)
			result := leafResult{exists: true, hash: HashOf(node), path: path, node: node}
			return unwindStack(stack, dirty, stale, newVersion, result)
		}

		internal, isInternal := cur.(InternalNode)
		if !isInternal {
			break
		}
		dispatchDepth := curPath.Len()
		nibble := keyPath.Get(dispatchDepth)
		stack = append(stack, frame{path: curPath, node: internal, version: curVersion, nibble: nibble})
		child, has := internal.Child(nibble)
		if !has {
			// No child at this nibble at all: a fresh leaf for this key
			// belongs directly one nibble below the parent, exactly where a
			// child pointer for this nibble would sit if one existed.
			haveNode = false
			cur = nil
			curPath = curPath.Push(nibble)
			break
		}
		curPath = child.Path
		curVersion = child.Version
		matchedDepth = dispatchDepth + 1
		n, err := t.resolveNode(cache, dirty, curVersion, curPath)
		if err != nil {
			return RootRef{}, rootExists, err
		}
		cur = n
	}

	result, noop, err := t.resolveLeafLevel(dirty, stale, newVersion, curPath, curVersion, haveNode, cur, keyPath, u)
	if err != nil {
		return RootRef{}, rootExists, err
	}
	if noop {
		return baseRoot, rootExists, nil
	}
	return unwindStack(stack, dirty, stale, newVersion, result)
}

// unwindStack applies result at the bottom of the walk upward through every
// frame the walk pushed, fixing up each ancestor's child pointer and
// collapsing any internal node a delete leaves with only one surviving
// child. It returns the RootRef the tree has once the update is applied,
// and whether that root exists at all.
func unwindStack(stack []frame, dirty map[NibblePath]workingEntry, stale map[NodeKey]struct{}, newVersion uint64, result leafResult) (RootRef, bool, error) {
	exists := result.exists
	childHash := result.hash
	childPath := result.path
	childVersion := newVersion

	for i := len(stack) - 1; i >= 0; i-- {
		f := stack[i]
		markStaleIfPersisted(dirty, stale, f.version, f.path)

		if !exists {
			updated := f.node.WithoutChild(f.nibble)
			if updated.Bitmap.Count() == 1 {
				// Forward the sole surviving child's ChildInfo verbatim one
				// level up, whether it is a leaf or an internal node: its
				// content and storage path are untouched, only the pointer
				// to it moves. See InternalNode's doc comment.
				only := updated.Children[0]
				delete(dirty, f.path)
				childHash = only.Hash
				childPath = only.Path
				childVersion = only.Version
				exists = true
				continue
			}
			dirty[f.path] = workingEntry{node: updated}
			childHash = HashOf(updated)
			childPath = f.path
			childVersion = newVersion
			exists = true
			continue
		}

		updated := f.node.WithChild(f.nibble, childHash, childVersion, childPath)
		dirty[f.path] = workingEntry{node: updated}
		childHash = HashOf(updated)
		childPath = f.path
		childVersion = newVersion
		exists = true
	}

	if !exists {
		return EmptyRoot, false, nil
	}
	return RootRef{Hash: childHash, Version: childVersion, Path: childPath}, true, nil
}

// leafResult carries the outcome of resolving a single update against
// whatever was found at the bottom of the walk: the resulting node's hash
// and the path it actually lives at, which is curPath except when a split
// materializes its one new internal node several nibbles deeper.
type leafResult struct {
	exists bool
	hash   Hash
	path   NibblePath
	node   Node
}

// resolveLeafLevel applies u at the point the walk stopped (curPath). For a
// non-noop outcome it also writes curPath's result directly into dirty; the
// stack unwind (or, if the stack is empty, applyUpdate itself) picks up the
// returned leafResult to keep propagating upward. The bool return is true
// when the update had no effect at all (deleting a key that was never
// present), in which case dirty is left untouched.
func (t *Tree) resolveLeafLevel(dirty map[NibblePath]workingEntry, stale map[NodeKey]struct{}, newVersion uint64, curPath NibblePath, curVersion uint64, haveNode bool, cur Node, keyPath NibblePath, u Update) (leafResult, bool, error) {
	if !haveNode {
		if u.Delete {
			return leafResult{}, true, nil
		}
		leaf := LeafNode{AccountKey: u.Key, ValueHash: u.Value}
		dirty[curPath] = workingEntry{node: leaf}
		return leafResult{exists: true, hash: HashOf(leaf), path: curPath, node: leaf}, false, nil
	}

	leaf, isLeaf := cur.(LeafNode)
	if !isLeaf {
		return leafResult{}, false, &CorruptNodeError{Key: NewNodeKey(curVersion, curPath), Reason: "expected leaf at end of walk"}
	}

	if leaf.AccountKey == u.Key {
		markStaleIfPersisted(dirty, stale, curVersion, curPath)
		if u.Delete {
			dirty[curPath] = workingEntry{deleted: true}
			return leafResult{exists: false}, false, nil
		}
		newLeaf := LeafNode{AccountKey: u.Key, ValueHash: u.Value}
		dirty[curPath] = workingEntry{node: newLeaf}
		return leafResult{exists: true, hash: HashOf(newLeaf), path: curPath, node: newLeaf}, false, nil
	}

	if u.Delete {
		return leafResult{}, true, nil
	}

	markStaleIfPersisted(dirty, stale, curVersion, curPath)
	newLeaf := LeafNode{AccountKey: u.Key, ValueHash: u.Value}
	top, topPath, err := buildSplitChain(dirty, newVersion, curPath, leaf, newLeaf, keyPath)
	if err != nil {
		return leafResult{}, false, err
	}
	if !topPath.Equal(curPath) {
		// leaf was found at curPath via this same batch's own working
		// overlay (an earlier update in the batch wrote it there); now that
		// it has been re-homed under the new internal node at topPath, the
		// stale copy at curPath must not also survive into NewNodes.
		delete(dirty, curPath)
	}
	return leafResult{exists: true, hash: HashOf(top), path: topPath, node: top}, false, nil
}

// buildSplitChain resolves an existing leaf diverging from a new leaf
// somewhere at or below curPath. It walks straight to the first nibble at
// which the two keys actually differ and materializes exactly one internal
// node there, holding both leaves as direct children - never a run of
// single-child wrapper nodes along the shared prefix between curPath and
// that divergence point, which would violate the "no internal node with
// fewer than two children" invariant. It writes the new internal node and
// both leaves into dirty and returns the internal node together with the
// path it actually lives at, which the caller threads up through its own
// parent (or the tree's root) as a ChildInfo/RootRef.
//
// Two keys of equal nibble length are guaranteed to diverge before either
// path is exhausted, since they are distinct Hash values.
func buildSplitChain(dirty map[NibblePath]workingEntry, newVersion uint64, curPath NibblePath, existingLeaf, newLeaf LeafNode, newKeyPath NibblePath) (Node, NibblePath, error) {
	existingPath := NibblePathFromKey(existingLeaf.AccountKey[:])
	divergeDepth := curPath.Len()
	for existingPath.Get(divergeDepth) == newKeyPath.Get(divergeDepth) {
		divergeDepth++
	}

	divergePath := curPath
	for d := curPath.Len(); d < divergeDepth; d++ {
		divergePath = divergePath.Push(newKeyPath.Get(d))
	}

	existingNibble := existingPath.Get(divergeDepth)
	newNibble := newKeyPath.Get(divergeDepth)
	existingLeafPath := divergePath.Push(existingNibble)
	newLeafPath := divergePath.Push(newNibble)

	dirty[existingLeafPath] = workingEntry{node: existingLeaf}
	dirty[newLeafPath] = workingEntry{node: newLeaf}

	node := InternalNode{}.
		WithChild(existingNibble, HashOf(existingLeaf), newVersion, existingLeafPath).
		WithChild(newNibble, HashOf(newLeaf), newVersion, newLeafPath)
	dirty[divergePath] = workingEntry{node: node}

	return node, divergePath, nil
}

// buildCompressedEdgeSplit handles a key diverging from whatever a pointer
// skips ahead to before even reaching that node's own storage path:
// existingPath is wherever that node already lives and stays there,
// untouched - only a new internal node above it is created, so the
// existing node's own ChildInfo (hash, version, path) is forwarded
// verbatim, exactly as a delete-collapse forwards a surviving child.
// divergeDepth is the first nibble at which newKeyPath stops agreeing with
// existingPath, as found by the caller's walk.
func buildCompressedEdgeSplit(dirty map[NibblePath]workingEntry, newVersion uint64, divergeDepth int, existingHash Hash, existingVersion uint64, existingPath NibblePath, newLeaf LeafNode, newKeyPath NibblePath) (Node, NibblePath) {
	divergePath := truncatePath(newKeyPath, divergeDepth)
	existingNibble := existingPath.Get(divergeDepth)
	newNibble := newKeyPath.Get(divergeDepth)
	newLeafPath := divergePath.Push(newNibble)

	dirty[newLeafPath] = workingEntry{node: newLeaf}
	node := InternalNode{}.
		WithChild(existingNibble, existingHash, existingVersion, existingPath).
		WithChild(newNibble, HashOf(newLeaf), newVersion, newLeafPath)
	dirty[divergePath] = workingEntry{node: node}

	return node, divergePath
}

// truncatePath returns the first n nibbles of p.
func truncatePath(p NibblePath, n int) NibblePath {
	out := EmptyPath
	for i := 0; i < n; i++ {
		out = out.Push(p.Get(i))
	}
	return out
}

// Get returns the value hash stored for keyHash at version, if any.
func (t *Tree) Get(keyHash Hash, version uint64) (Hash, bool, error) {
	t.mu.Lock()
	root, ok := t.roots[version]
	t.mu.Unlock()
	if !ok {
		return Hash{}, false, ErrUnknownVersion
	}
	if root.Hash.IsZero() {
		return Hash{}, false, nil
	}

	keyPath := NibblePathFromKey(keyHash[:])
	curPath := root.Path
	curVersion := root.Version
	matchedDepth := 0
	for {
		for matchedDepth < curPath.Len() {
			if keyPath.Get(matchedDepth) != curPath.Get(matchedDepth) {
				// keyHash parts ways with the nibbles this pointer skipped
				// over before even reaching the node it names - it cannot
				// be stored under it.
				return Hash{}, false, nil
			}
			matchedDepth++
		}

		n, err := t.resolveNode(t.cache, nil, curVersion, curPath)
		if err != nil {
			return Hash{}, false, err
		}
		switch node := n.(type) {
		case LeafNode:
			if node.AccountKey != keyHash {
				return Hash{}, false, nil
			}
			return node.ValueHash, true, nil
		case InternalNode:
			dispatchDepth := curPath.Len()
			nibble := keyPath.Get(dispatchDepth)
			child, has := node.Child(nibble)
			if !has {
				return Hash{}, false, nil
			}
			curPath = child.Path
			curVersion = child.Version
			matchedDepth = dispatchDepth + 1
		default:
			return Hash{}, false, &CorruptNodeError{Key: NewNodeKey(curVersion, curPath), Reason: "unknown node kind"}
		}
	}
}
