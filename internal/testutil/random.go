// Package testutil holds small helpers shared across this module's test
// files: random key/value generation for the shadow-model style randomized
// tests in tree, grounded in the same math/rand approach the
// teacher's own fuzzing campaigns seed their operand pools with.
//
// This package is imported by internal (package-level) test files in tree,
// so it must not import tree itself - that would be an import cycle. Callers
// that need a fixed-size hash type copy the returned bytes into their own
// type.
package testutil

import (
	"math/rand"
)

// RandomHash fills a size-byte slice with bytes drawn from r.
func RandomHash(r *rand.Rand, size int) []byte {
	h := make([]byte, size)
	r.Read(h)
	return h
}

// RandomHashes returns n distinct size-byte slices drawn from r. Collisions
// are vanishingly unlikely at typical hash widths, so no dedup pass is
// needed.
func RandomHashes(r *rand.Rand, n, size int) [][]byte {
	out := make([][]byte, n)
	for i := range out {
		out[i] = RandomHash(r, size)
	}
	return out
}
