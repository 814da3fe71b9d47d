// Package tree implements the core of a versioned, sparse, radix-16
// authenticated key/value tree: a persistent trie whose leaves carry
// key/value-hash pairs and whose internal nodes carry up to sixteen child
// pointers addressed by a 4-bit nibble, each pointer naming both a hash and
// the version at which the referenced node was created.
//
// Writes are batched: PutValueSet takes a set of (key, value-or-delete)
// updates in any order (it sorts them by key path itself) and a strictly
// increasing version number, and returns every newly
// created node together with the resulting root hash. Existing nodes are
// never mutated, so a reader holding an older version number continues to
// see exactly the tree as it existed at that version.
//
// Todos:
//   - parallelize hashing of independent subtrees within a single batch
//   - support partial / single-key inclusion proofs
package tree
