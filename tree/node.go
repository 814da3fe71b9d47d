package tree

import (
	"encoding/binary"
	"fmt"
)

// HashSize is the build-time constant width, in bytes, of every hash in this
// module: account keys, value hashes, and node hashes alike. Changing it is a
// breaking change to every on-disk node - it is burned into the canonical
// encoding, not read from a header.
const HashSize = 64

// Hash is an opaque, fixed-width digest.
type Hash [HashSize]byte

// ZeroHash is the sentinel root hash of the empty tree.
var ZeroHash Hash

// IsZero reports whether h is the all-zero sentinel.
func (h Hash) IsZero() bool {
	return h == ZeroHash
}

func (h Hash) String() string {
	return fmt.Sprintf("%x", h[:])
}

// Bytes is an opaque, variable-length byte string. It is an alias rather than
// a defined type so callers can pass []byte literals and slices directly.
type Bytes = []byte

// ChildInfo is a pointer to a child node: its hash, the version it was
// created at, and the NibblePath it is actually stored under. Path usually
// equals the parent's own path with the child's nibble appended, but not
// always - a child reached through a run of nibbles with no other branch
// along the way is stored directly at its own divergence point, and Path is
// how the parent names that without materializing a chain of one-child
// nodes to get there. See InternalNode's doc comment.
type ChildInfo struct {
	Hash    Hash
	Version uint64
	Path    NibblePath
}

// Node is the tagged union of the two node shapes a tree is built from.
// Implementations are exhaustive by construction: InternalNode and LeafNode
// are the only types satisfying this interface, and callers are expected to
// switch on concrete type rather than inspecting a kind flag that could be
// forgotten.
type Node interface {
	// hash computes this node's domain-separated hash.
	hash() Hash
	// canonicalEncode appends this node's canonical body (no type prefix) to
	// buf and returns the result.
	canonicalEncode(buf []byte) []byte
}

// InternalNode carries up to sixteen child pointers, addressed by nibble via
// Bitmap. An internal node with fewer than two children is never emitted:
// two keys that share a long run of nibbles before diverging do not produce
// a chain of one-child wrapper nodes along that run, and a delete that would
// leave an internal node with a single surviving child instead collapses
// that node away, splicing the surviving child directly into the slot its
// parent used to occupy.
//
// What makes both of those possible without a dedicated skip/path-
// compression field is that a ChildInfo's Path is not forced to be "parent's
// path plus one nibble" - it names the child's real storage path, however
// many nibbles deeper than the parent that turns out to be. A split walks
// straight to the first nibble at which two keys actually differ and emits
// one internal node there, addressed by that real path; an ancestor several
// levels up simply points at it directly. Collapsing a node on delete is the
// same operation run in reverse: the sole surviving child's own ChildInfo -
// hash, version, and path together - is copied one level up verbatim, no
// relocation of the child's own stored node required.
type InternalNode struct {
	Bitmap   Bitmap
	Children []ChildInfo // ordered by increasing nibble index; len == Bitmap.Count()
}

// Child returns the child pointer stored at nibble, if any.
func (n InternalNode) Child(nibble byte) (ChildInfo, bool) {
	if !n.Bitmap.Exists(nibble) {
		return ChildInfo{}, false
	}
	return n.Children[n.Bitmap.IndexOf(nibble)], true
}

// WithChild returns a shallow copy of n with the child at nibble set to
// (hash, version, path), inserting it if absent. It never mutates n - every
// ancestor touched by a batch update must be re-emitted, never edited in
// place.
func (n InternalNode) WithChild(nibble byte, h Hash, version uint64, path NibblePath) InternalNode {
	info := ChildInfo{Hash: h, Version: version, Path: path}
	if n.Bitmap.Exists(nibble) {
		idx := n.Bitmap.IndexOf(nibble)
		children := make([]ChildInfo, len(n.Children))
		copy(children, n.Children)
		children[idx] = info
		return InternalNode{Bitmap: n.Bitmap, Children: children}
	}
	idx := n.Bitmap.IndexOf(nibble)
	children := make([]ChildInfo, len(n.Children)+1)
	copy(children, n.Children[:idx])
	children[idx] = info
	copy(children[idx+1:], n.Children[idx:])
	return InternalNode{Bitmap: n.Bitmap.Set(nibble), Children: children}
}

// WithoutChild returns a shallow copy of n with the child at nibble removed.
func (n InternalNode) WithoutChild(nibble byte) InternalNode {
	if !n.Bitmap.Exists(nibble) {
		return n
	}
	idx := n.Bitmap.IndexOf(nibble)
	children := make([]ChildInfo, len(n.Children)-1)
	copy(children, n.Children[:idx])
	copy(children[idx:], n.Children[idx+1:])
	return InternalNode{Bitmap: n.Bitmap.Clear(nibble), Children: children}
}

// canonicalEncode writes: u16 bitmap mask (LE) || for each child, in
// nibble-ascending order: path nibble count (u32 LE) || packed path bytes ||
// hash (H bytes) || version (u64 LE). The path is part of the canonical body
// (and therefore part of the hash) because it is load-bearing content, not
// incidental metadata: two internal nodes with identical bitmaps and child
// hashes but children stored at different depths are different nodes.
func (n InternalNode) canonicalEncode(buf []byte) []byte {
	var maskBuf [2]byte
	binary.LittleEndian.PutUint16(maskBuf[:], n.Bitmap.RawMask())
	buf = append(buf, maskBuf[:]...)
	var countBuf [4]byte
	var versionBuf [8]byte
	for _, c := range n.Children {
		binary.LittleEndian.PutUint32(countBuf[:], uint32(c.Path.Len()))
		buf = append(buf, countBuf[:]...)
		buf = append(buf, c.Path.Bytes()...)
		buf = append(buf, c.Hash[:]...)
		binary.LittleEndian.PutUint64(versionBuf[:], c.Version)
		buf = append(buf, versionBuf[:]...)
	}
	return buf
}

func (n InternalNode) hash() Hash {
	return domainHash(domainInternal, n.canonicalEncode(nil))
}

// LeafNode carries the full hashed key it was inserted under, together with
// the opaque value hash the tree was asked to store for that key.
type LeafNode struct {
	AccountKey Hash
	ValueHash  Hash
}

// canonicalEncode writes: account_key (H bytes) || value_hash (H bytes).
func (n LeafNode) canonicalEncode(buf []byte) []byte {
	buf = append(buf, n.AccountKey[:]...)
	buf = append(buf, n.ValueHash[:]...)
	return buf
}

func (n LeafNode) hash() Hash {
	return domainHash(domainLeaf, n.canonicalEncode(nil))
}

// HashOf returns the domain-separated hash of any Node.
func HashOf(n Node) Hash {
	return n.hash()
}

// NodeKey identifies a single node: the version at which it was created,
// and its position in the trie as a nibble path from the root.
type NodeKey struct {
	Version uint64
	Path    NibblePath
}

// NewNodeKey constructs a NodeKey.
func NewNodeKey(version uint64, path NibblePath) NodeKey {
	return NodeKey{Version: version, Path: path}
}

// RootKey returns the key addressing the root node of the given version.
func RootKey(version uint64) NodeKey {
	return NodeKey{Version: version, Path: EmptyPath}
}

// RootRef names the node a version's root actually resolves to: its hash,
// the version its underlying node is keyed under, and the NibblePath it is
// stored at. Most roots sit at EmptyPath, but a root produced by collapsing
// a deep divergence at the very top of a tree - or by a delete-collapse that
// cascades all the way up to the root - does not, so the tree tracks this
// explicitly per version rather than assuming EmptyPath.
type RootRef struct {
	Hash    Hash
	Version uint64
	Path    NibblePath
}

// EmptyRoot is the RootRef of the empty tree.
var EmptyRoot = RootRef{Hash: ZeroHash}

// Compare orders keys by Version first, then Path.
func (k NodeKey) Compare(other NodeKey) int {
	if k.Version != other.Version {
		if k.Version < other.Version {
			return -1
		}
		return 1
	}
	return k.Path.Compare(other.Path)
}

// Serialize writes: version (8 bytes LE) || nibble count (4 bytes LE) ||
// packed path bytes. This is the byte string a TreeReader is keyed by.
func (k NodeKey) Serialize() []byte {
	path := k.Path.Bytes()
	buf := make([]byte, 12+len(path))
	binary.LittleEndian.PutUint64(buf[0:8], k.Version)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(k.Path.Len()))
	copy(buf[12:], path)
	return buf
}

// DeserializeNodeKey parses the output of NodeKey.Serialize.
func DeserializeNodeKey(b []byte) (NodeKey, error) {
	if len(b) < 12 {
		return NodeKey{}, fmt.Errorf("node key too short: %d bytes", len(b))
	}
	version := binary.LittleEndian.Uint64(b[0:8])
	count := int(binary.LittleEndian.Uint32(b[8:12]))
	need := (count + 1) / 2
	if len(b)-12 < need {
		return NodeKey{}, fmt.Errorf("node key path truncated: need %d bytes, have %d", need, len(b)-12)
	}
	path := NibblePathFromBytes(b[12:12+need], count)
	return NodeKey{Version: version, Path: path}, nil
}

func (k NodeKey) String() string {
	return fmt.Sprintf("(v%d,%s)", k.Version, k.Path.String())
}
