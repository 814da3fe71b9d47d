package tree

//go:generate mockgen -source reader.go -destination reader_mocks.go -package tree

// TreeReader is the external byte store's read contract. A nil result with
// a nil error means "not present", which for a well-formed history is only
// legitimate for the genesis/empty tree - any other miss indicates a
// MissingNodeError further up the call chain.
type TreeReader interface {
	GetNodeBytes(key NodeKey) (Bytes, error)
}

// NullReader is a TreeReader that never has anything: every lookup returns
// (nil, nil). It lets the engine run in test and pure in-memory modes
// without a real byte store, same as the original's null-reader fallback in
// xmt_legacy_adapter.hpp's InMemoryReader.
type NullReader struct{}

func (NullReader) GetNodeBytes(NodeKey) (Bytes, error) {
	return nil, nil
}

// readNode fetches and decodes a node through a reader, producing the two
// error kinds §4.4/§7 call for: MissingNodeError when the reader has
// nothing, CorruptNodeError when what it has does not decode.
func readNode(r TreeReader, key NodeKey) (Node, error) {
	if r == nil {
		return nil, &MissingNodeError{Key: key}
	}
	raw, err := r.GetNodeBytes(key)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, &MissingNodeError{Key: key}
	}
	n, err := DecodeNode(raw)
	if err != nil {
		return nil, withKey(err, key)
	}
	return n, nil
}
