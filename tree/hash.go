package tree

import "golang.org/x/crypto/blake2b"

// Domain separators prefixed to every hash input before digestion, so that
// no leaf and no internal node can ever share a hash even if their
// canonical bodies happen to be byte-equal. These two strings are part of
// the persisted contract: changing either re-roots the entire database.
const (
	domainInternal = "xook.tree.internal.v1"
	domainLeaf     = "xook.tree.leaf.v1"
)

// domainHash computes digest(domain || body) using a 512-bit BLAKE2b
// hasher, streamed the same way the teacher streams its Keccak hasher in
// state/mpt/hasher.go (Write domain, Write body, Sum) rather than
// concatenating into one buffer first.
func domainHash(domain string, body []byte) Hash {
	h, err := blake2b.New512(nil)
	if err != nil {
		// New512 only fails for an oversized key, and we never pass one.
		panic(err)
	}
	h.Write([]byte(domain))
	h.Write(body)
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

// HashKey hashes an arbitrary raw key down to the fixed HashSize domain
// every path in the tree is built from. This is the single place the
// raw-key-to-path-key mapping happens; the engine itself only ever sees
// fixed-width Hash values.
func HashKey(raw []byte) Hash {
	h, err := blake2b.New512(nil)
	if err != nil {
		panic(err)
	}
	h.Write(raw)
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}
