package tree

import "testing"

func TestCodec_LeafRoundTrips(t *testing.T) {
	leaf := LeafNode{AccountKey: Hash{1, 2, 3}, ValueHash: Hash{4, 5, 6}}
	encoded := EncodeWithPrefix(leaf)
	got, err := DecodeNode(encoded)
	if err != nil {
		t.Fatalf("unexpected error decoding: %v", err)
	}
	decodedLeaf, ok := got.(LeafNode)
	if !ok {
		t.Fatalf("decoded node is not a LeafNode: %T", got)
	}
	if decodedLeaf != leaf {
		t.Errorf("leaf did not round-trip: wanted %+v, got %+v", leaf, decodedLeaf)
	}
}

func TestCodec_InternalRoundTrips(t *testing.T) {
	var n InternalNode
	n = n.WithChild(0, Hash{1}, 10, EmptyPath.Push(0))
	n = n.WithChild(5, Hash{2}, 20, EmptyPath.Push(5))
	n = n.WithChild(15, Hash{3}, 30, EmptyPath.Push(15))

	encoded := EncodeWithPrefix(n)
	got, err := DecodeNode(encoded)
	if err != nil {
		t.Fatalf("unexpected error decoding: %v", err)
	}
	decoded, ok := got.(InternalNode)
	if !ok {
		t.Fatalf("decoded node is not an InternalNode: %T", got)
	}
	if decoded.Bitmap != n.Bitmap {
		t.Errorf("bitmap did not round-trip: wanted %v, got %v", n.Bitmap, decoded.Bitmap)
	}
	if len(decoded.Children) != len(n.Children) {
		t.Fatalf("unexpected child count, wanted %d, got %d", len(n.Children), len(decoded.Children))
	}
	for i, want := range n.Children {
		if decoded.Children[i] != want {
			t.Errorf("child %d did not round-trip: wanted %+v, got %+v", i, want, decoded.Children[i])
		}
	}
}

func TestCodec_EmptyInternalRoundTrips(t *testing.T) {
	encoded := EncodeWithPrefix(InternalNode{})
	got, err := DecodeNode(encoded)
	if err != nil {
		t.Fatalf("unexpected error decoding an empty internal node: %v", err)
	}
	decoded, ok := got.(InternalNode)
	if !ok || !decoded.Bitmap.Empty() || len(decoded.Children) != 0 {
		t.Errorf("expected an empty internal node, got %+v", got)
	}
}

func TestCodec_DecodeRejectsEmptyInput(t *testing.T) {
	if _, err := DecodeNode(nil); err == nil {
		t.Errorf("expected an error decoding empty input")
	}
	if _, err := DecodeNode([]byte{}); err == nil {
		t.Errorf("expected an error decoding empty input")
	}
}

func TestCodec_DecodeRejectsUnknownPrefix(t *testing.T) {
	if _, err := DecodeNode([]byte{0xFF, 0, 0}); err == nil {
		t.Errorf("expected an error decoding an unknown prefix byte")
	}
}

func TestCodec_DecodeRejectsTruncatedInternalBitmap(t *testing.T) {
	// Only one byte of the two-byte bitmap header survives.
	if _, err := DecodeNode([]byte{prefixInternal, 0x01}); err == nil {
		t.Errorf("expected an error decoding a bitmap-truncated internal node")
	}
}

func TestCodec_DecodeRejectsTruncatedInternalChildRecord(t *testing.T) {
	var n InternalNode
	n = n.WithChild(0, Hash{1}, 10, EmptyPath.Push(0))
	encoded := EncodeWithPrefix(n)
	// Drop the last byte of the one child's record.
	truncated := encoded[:len(encoded)-1]
	if _, err := DecodeNode(truncated); err == nil {
		t.Errorf("expected an error decoding a child-record-truncated internal node")
	}
}

func TestCodec_DecodeRejectsTrailingBytesAfterInternal(t *testing.T) {
	var n InternalNode
	n = n.WithChild(0, Hash{1}, 10, EmptyPath.Push(0))
	encoded := EncodeWithPrefix(n)
	withGarbage := append(encoded, 0xAA)
	if _, err := DecodeNode(withGarbage); err == nil {
		t.Errorf("expected an error decoding an internal node with trailing bytes")
	}
}

func TestCodec_DecodeRejectsWrongLengthLeafBody(t *testing.T) {
	leaf := LeafNode{AccountKey: Hash{1}, ValueHash: Hash{2}}
	encoded := EncodeWithPrefix(leaf)

	if _, err := DecodeNode(encoded[:len(encoded)-1]); err == nil {
		t.Errorf("expected an error decoding a truncated leaf body")
	}
	withGarbage := append(encoded, 0xAA)
	if _, err := DecodeNode(withGarbage); err == nil {
		t.Errorf("expected an error decoding a leaf with trailing bytes")
	}
}

func TestCodec_InternalAndLeafEncodingsHaveDistinctPrefixes(t *testing.T) {
	leaf := EncodeWithPrefix(LeafNode{AccountKey: Hash{1}, ValueHash: Hash{2}})
	internal := EncodeWithPrefix(InternalNode{})
	if leaf[0] == internal[0] {
		t.Errorf("leaf and internal node encodings must not share a prefix byte")
	}
}
