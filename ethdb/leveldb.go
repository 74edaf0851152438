// Package ethdb provides Backend implementations for the trie package: a
// durable LevelDB-backed store and a fastcache-backed read cache layer that
// can wrap it (or any other Backend).
package ethdb

import (
	"errors"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/lambdaclass/ethrex-trie/trie"
	"github.com/lambdaclass/ethrex-trie/types"
)

// LevelDBBackend persists trie nodes in a LevelDB instance, keyed by their
// 32-byte node hash.
type LevelDBBackend struct {
	db *leveldb.DB
}

// OpenLevelDB opens (creating if necessary) a LevelDB database at path for
// use as a trie Backend.
func OpenLevelDB(path string) (*LevelDBBackend, error) {
	db, err := leveldb.OpenFile(path, &opt.Options{})
	if err != nil {
		return nil, trie.NewBackendError(err)
	}
	return &LevelDBBackend{db: db}, nil
}

// Get looks up a node by hash. A missing key is reported as
// trie.ErrNotFound, not the LevelDB-specific not-found error.
func (b *LevelDBBackend) Get(hash types.Hash) ([]byte, error) {
	data, err := b.db.Get(hash[:], nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, trie.ErrNotFound
		}
		return nil, trie.NewBackendError(err)
	}
	return data, nil
}

// Put writes a single node. LevelDB does not require an explicit flush for
// durability of a single write.
func (b *LevelDBBackend) Put(hash types.Hash, data []byte) error {
	if err := b.db.Put(hash[:], data, nil); err != nil {
		return trie.NewBackendError(err)
	}
	return nil
}

// PutBatch writes every entry as a single atomic LevelDB batch.
func (b *LevelDBBackend) PutBatch(entries map[types.Hash][]byte) error {
	batch := new(leveldb.Batch)
	for hash, data := range entries {
		batch.Put(hash[:], data)
	}
	if err := b.db.Write(batch, nil); err != nil {
		return trie.NewBackendError(err)
	}
	return nil
}

// Commit is a no-op: LevelDB writes are already durable once Write/Put
// returns.
func (b *LevelDBBackend) Commit() error { return nil }

// Close releases the underlying LevelDB handle.
func (b *LevelDBBackend) Close() error {
	return b.db.Close()
}
