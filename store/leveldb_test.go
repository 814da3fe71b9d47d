package store

import (
	"testing"

	"github.com/Praexor/xook/tree"
)

func openTestStore(t *testing.T) *LevelDBStore {
	t.Helper()
	s, err := OpenInMemoryLevelDBStore()
	if err != nil {
		t.Fatalf("unexpected error opening an in-memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLevelDBStore_GetOfMissingKeyIsNilNilNotError(t *testing.T) {
	s := openTestStore(t)
	key := tree.NewNodeKey(1, tree.EmptyPath)
	got, err := s.GetNodeBytes(key)
	if err != nil {
		t.Fatalf("a miss must not be reported as an error, got %v", err)
	}
	if got != nil {
		t.Errorf("expected nil bytes for a missing key, got %v", got)
	}
}

func TestLevelDBStore_PersistThenGetRoundTrips(t *testing.T) {
	s := openTestStore(t)
	leaf := tree.LeafNode{AccountKey: tree.Hash{1}, ValueHash: tree.Hash{2}}
	key := tree.NewNodeKey(1, tree.NibblePathFromKey([]byte{0x01}))

	batch := tree.Batch{
		NewNodes: map[tree.NodeKey]tree.Node{key: leaf},
	}
	if err := s.Persist(batch); err != nil {
		t.Fatalf("unexpected error persisting: %v", err)
	}

	raw, err := s.GetNodeBytes(key)
	if err != nil {
		t.Fatalf("unexpected error reading back: %v", err)
	}
	if raw == nil {
		t.Fatalf("expected to find the persisted node")
	}
	decoded, err := tree.DecodeNode(raw)
	if err != nil {
		t.Fatalf("unexpected error decoding persisted bytes: %v", err)
	}
	if decoded != tree.Node(leaf) {
		t.Errorf("decoded node does not match what was persisted: wanted %+v, got %+v", leaf, decoded)
	}
}

func TestLevelDBStore_PersistWritesEveryNewNodeAtomically(t *testing.T) {
	s := openTestStore(t)
	k1 := tree.NewNodeKey(1, tree.NibblePathFromKey([]byte{0x01}))
	k2 := tree.NewNodeKey(1, tree.NibblePathFromKey([]byte{0x02}))
	batch := tree.Batch{
		NewNodes: map[tree.NodeKey]tree.Node{
			k1: tree.LeafNode{AccountKey: tree.Hash{1}, ValueHash: tree.Hash{1}},
			k2: tree.LeafNode{AccountKey: tree.Hash{2}, ValueHash: tree.Hash{2}},
		},
	}
	if err := s.Persist(batch); err != nil {
		t.Fatalf("unexpected error persisting: %v", err)
	}
	for _, k := range []tree.NodeKey{k1, k2} {
		if raw, err := s.GetNodeBytes(k); err != nil || raw == nil {
			t.Errorf("expected node %s to be persisted, got raw=%v err=%v", k, raw, err)
		}
	}
}

func TestLevelDBStore_DifferentVersionsOfSamePathAreDistinctKeys(t *testing.T) {
	s := openTestStore(t)
	path := tree.NibblePathFromKey([]byte{0xAB})
	k1 := tree.NewNodeKey(1, path)
	k2 := tree.NewNodeKey(2, path)

	leaf1 := tree.LeafNode{AccountKey: tree.Hash{1}, ValueHash: tree.Hash{1}}
	leaf2 := tree.LeafNode{AccountKey: tree.Hash{2}, ValueHash: tree.Hash{2}}

	if err := s.Persist(tree.Batch{NewNodes: map[tree.NodeKey]tree.Node{k1: leaf1}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Persist(tree.Batch{NewNodes: map[tree.NodeKey]tree.Node{k2: leaf2}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	raw1, err := s.GetNodeBytes(k1)
	if err != nil || raw1 == nil {
		t.Fatalf("expected version 1's node to survive, got raw=%v err=%v", raw1, err)
	}
	decoded1, err := tree.DecodeNode(raw1)
	if err != nil || decoded1 != tree.Node(leaf1) {
		t.Errorf("version 1's node was overwritten by version 2's write: got %+v", decoded1)
	}
}
