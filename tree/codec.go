package tree

import "encoding/binary"

// Prefix bytes distinguishing the two node shapes in the byte store's
// encoding. These, like the hash domain separators, are part of the
// persisted contract.
const (
	prefixInternal byte = 0x01
	prefixLeaf     byte = 0x02
)

// EncodeWithPrefix produces the byte string a node is persisted under in the
// external byte store: a one-byte type tag followed by the node's canonical
// body.
func EncodeWithPrefix(n Node) []byte {
	switch v := n.(type) {
	case InternalNode:
		size := 3
		for _, c := range v.Children {
			size += 4 + len(c.Path.Bytes()) + HashSize + 8
		}
		buf := make([]byte, 0, size)
		buf = append(buf, prefixInternal)
		return v.canonicalEncode(buf)
	case LeafNode:
		buf := make([]byte, 0, 1+2*HashSize)
		buf = append(buf, prefixLeaf)
		return v.canonicalEncode(buf)
	default:
		panic("tree: unknown node type")
	}
}

// DecodeNode is the strict decoder required by spec: it rejects empty input,
// an unknown prefix, a truncated body, and - critically - any trailing bytes
// left over once the exactly-expected body has been consumed.
func DecodeNode(b []byte) (Node, error) {
	if len(b) == 0 {
		return nil, &CorruptNodeError{Reason: "empty input"}
	}
	switch b[0] {
	case prefixInternal:
		return decodeInternal(b[1:])
	case prefixLeaf:
		return decodeLeaf(b[1:])
	default:
		return nil, &CorruptNodeError{Reason: "unknown prefix byte"}
	}
}

func decodeInternal(body []byte) (Node, error) {
	if len(body) < 2 {
		return nil, &CorruptNodeError{Reason: "truncated internal node: missing bitmap"}
	}
	mask := binary.LittleEndian.Uint16(body[0:2])
	bitmap := NewBitmap(mask)
	pos := 2
	count := bitmap.Count()
	children := make([]ChildInfo, 0, count)
	for i := 0; i < count; i++ {
		if pos+4 > len(body) {
			return nil, &CorruptNodeError{Reason: "truncated internal node: missing child path length"}
		}
		nibbleCount := int(binary.LittleEndian.Uint32(body[pos : pos+4]))
		pos += 4
		pathBytes := (nibbleCount + 1) / 2
		recordSize := pathBytes + HashSize + 8
		if pos+recordSize > len(body) {
			return nil, &CorruptNodeError{Reason: "truncated internal node: missing child record"}
		}
		path := NibblePathFromBytes(body[pos:pos+pathBytes], nibbleCount)
		pos += pathBytes
		var h Hash
		copy(h[:], body[pos:pos+HashSize])
		pos += HashSize
		version := binary.LittleEndian.Uint64(body[pos : pos+8])
		pos += 8
		children = append(children, ChildInfo{Hash: h, Version: version, Path: path})
	}
	if pos != len(body) {
		return nil, &CorruptNodeError{Reason: "trailing bytes after internal node"}
	}
	return InternalNode{Bitmap: bitmap, Children: children}, nil
}

func decodeLeaf(body []byte) (Node, error) {
	if len(body) != 2*HashSize {
		return nil, &CorruptNodeError{Reason: "wrong length for leaf node"}
	}
	var accountKey, valueHash Hash
	copy(accountKey[:], body[0:HashSize])
	copy(valueHash[:], body[HashSize:2*HashSize])
	return LeafNode{AccountKey: accountKey, ValueHash: valueHash}, nil
}
