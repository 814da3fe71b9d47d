package tree

import (
	"fmt"
	"strings"
)

// NibblePath is an ordered sequence of 4-bit digits ("nibbles"), packed two
// per byte, high nibble first. Its length is tracked separately from the
// packed byte buffer's length, because an odd-length path leaves the low
// nibble of its final byte unused - that padding nibble is always zeroed,
// which is what makes two NibblePaths with the same logical content compare
// and serialize identically regardless of how they were built.
//
// The packed buffer is held as a string rather than a []byte. Strings are
// immutable and comparable, which lets NodeKey (version, NibblePath) be used
// directly as a Go map key - the equivalent of the original's hand-rolled
// std::hash<NodeKey> specialization, but for free.
type NibblePath struct {
	packed string
	count  int
}

// EmptyPath is the zero-length path, addressing the root of a tree.
var EmptyPath = NibblePath{}

// NibblePathFromBytes builds a path from a packed byte buffer and an
// explicit nibble count. A buffer longer than required by count is
// truncated; the padding nibble of an odd-length path is zeroed regardless
// of what was passed in, so construction is canonical by default.
func NibblePathFromBytes(packed []byte, count int) NibblePath {
	need := (count + 1) / 2
	if len(packed) > need {
		packed = packed[:need]
	}
	buf := make([]byte, len(packed))
	copy(buf, packed)
	if count%2 == 1 && len(buf) > 0 {
		buf[len(buf)-1] &= 0xF0
	}
	return NibblePath{packed: string(buf), count: count}
}

// NibblePathFromKey treats every byte of key as two nibbles, high first.
// This is the standard way a fixed-width account key is turned into a
// navigable path.
func NibblePathFromKey(key []byte) NibblePath {
	return NibblePathFromBytes(key, len(key)*2)
}

// Len returns the number of nibbles in the path.
func (p NibblePath) Len() int {
	return p.count
}

// Bytes returns the packed byte buffer backing this path.
func (p NibblePath) Bytes() []byte {
	return []byte(p.packed)
}

// Get returns the nibble at index i. It panics if i is out of range -
// callers that cannot guarantee i < Len() should check first.
func (p NibblePath) Get(i int) byte {
	if i < 0 || i >= p.count {
		panic(fmt.Sprintf("nibble index %d out of bounds (len %d)", i, p.count))
	}
	b := p.packed[i/2]
	if i%2 == 0 {
		return b >> 4
	}
	return b & 0x0F
}

// Push appends a nibble (0..15) to the end of the path.
func (p NibblePath) Push(nibble byte) NibblePath {
	if nibble > 0x0F {
		panic(fmt.Sprintf("nibble %d out of range", nibble))
	}
	buf := []byte(p.packed)
	if p.count%2 == 0 {
		buf = append(buf, nibble<<4)
	} else {
		buf[len(buf)-1] |= nibble & 0x0F
	}
	return NibblePath{packed: string(buf), count: p.count + 1}
}

// Pop removes the last nibble of the path, re-zeroing the vacated nibble so
// the canonical zero-padding invariant holds whether the resulting length is
// even or odd. Popping an empty path is a no-op.
func (p NibblePath) Pop() NibblePath {
	if p.count == 0 {
		return p
	}
	buf := []byte(p.packed)
	if p.count%2 == 0 {
		// The last nibble occupied the low bits of the final byte; clearing
		// them leaves the path at odd length with a canonically zeroed pad.
		buf[len(buf)-1] &= 0xF0
	} else {
		// The last nibble was the only one in the final byte.
		buf = buf[:len(buf)-1]
	}
	return NibblePath{packed: string(buf), count: p.count - 1}
}

// Compare orders paths by length first (shorter is smaller), then
// lexicographically over the canonical packed bytes.
func (p NibblePath) Compare(other NibblePath) int {
	if p.count != other.count {
		if p.count < other.count {
			return -1
		}
		return 1
	}
	return strings.Compare(p.packed, other.packed)
}

// Equal reports whether two paths have identical logical content.
func (p NibblePath) Equal(other NibblePath) bool {
	return p.count == other.count && p.packed == other.packed
}

// String renders the path as a hex digit string, for debugging.
func (p NibblePath) String() string {
	var b strings.Builder
	b.Grow(p.count)
	for i := 0; i < p.count; i++ {
		fmt.Fprintf(&b, "%x", p.Get(i))
	}
	return b.String()
}
