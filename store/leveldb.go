// Package store is a reference implementation of the tree package's
// TreeReader contract, backed by goleveldb. It is not itself part of the
// tree engine - tree.Tree works against the TreeReader interface and does
// not know or care that LevelDBStore is what is on the other end of it.
package store

import (
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/Praexor/xook/tree"
)

// TableSpace separates this store's keys from anything else sharing the
// same underlying database, the way backend.TableSpace does for Carmen's
// stores.
type TableSpace byte

// NodeTableSpace is the single tablespace this package writes under.
const NodeTableSpace TableSpace = 'N'

// LevelDBStore implements tree.TreeReader directly atop a *leveldb.DB.
type LevelDBStore struct {
	db *leveldb.DB
}

// OpenLevelDBStore opens (creating if necessary) a LevelDB database at path.
func OpenLevelDBStore(path string) (*LevelDBStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	return &LevelDBStore{db: db}, nil
}

// OpenInMemoryLevelDBStore opens a LevelDB database backed by an in-memory
// storage.Storage, for tests and for an adapter's default configuration
// that has no need of a filesystem.
func OpenInMemoryLevelDBStore() (*LevelDBStore, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("store: open in-memory: %w", err)
	}
	return &LevelDBStore{db: db}, nil
}

// Close releases the underlying database.
func (s *LevelDBStore) Close() error {
	return s.db.Close()
}

func dbKey(key tree.NodeKey) []byte {
	serialized := key.Serialize()
	buf := make([]byte, 1+len(serialized))
	buf[0] = byte(NodeTableSpace)
	copy(buf[1:], serialized)
	return buf
}

// GetNodeBytes implements tree.TreeReader. A miss is reported as (nil, nil)
// per the interface's contract, not as an error.
func (s *LevelDBStore) GetNodeBytes(key tree.NodeKey) (tree.Bytes, error) {
	v, err := s.db.Get(dbKey(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Persist writes every node in batch.NewNodes atomically. batch.StaleNodes
// is intentionally left alone: pruning superseded versions is not this
// store's job.
func (s *LevelDBStore) Persist(batch tree.Batch) error {
	wb := new(leveldb.Batch)
	for key, node := range batch.NewNodes {
		wb.Put(dbKey(key), tree.EncodeWithPrefix(node))
	}
	return s.db.Write(wb, nil)
}
