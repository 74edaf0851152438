package trie

import (
	"sync"

	"github.com/lambdaclass/ethrex-trie/types"
)

// Backend is the storage contract the trie consumes. It is keyed by node
// hash: the trie's internal key scheme is an implementer's choice between
// the node hash and the nibble path to the node; this engine keys by hash,
// matching how the reference Go client shares and dedupes identical
// subtrees across accounts and across historical roots.
//
// All operations may fail with a backend-specific error; callers see it
// wrapped as ErrBackend.
type Backend interface {
	// Get looks up the RLP-encoded node stored under hash. A missing
	// entry is reported with ErrNotFound, not a backend-specific error.
	Get(hash types.Hash) ([]byte, error)
	// Put writes a single node. Not required to be durable until Commit.
	Put(hash types.Hash, data []byte) error
	// PutBatch writes multiple nodes; implementations may treat the
	// batch as atomic.
	PutBatch(entries map[types.Hash][]byte) error
	// Commit is the durability barrier.
	Commit() error
}

// memoryBackend is an in-memory Backend. It is not a default: a trie
// constructed with New has no backend at all.
type memoryBackend struct {
	mu    sync.RWMutex
	nodes map[types.Hash][]byte
}

// NewMemoryBackend returns a Backend that keeps all nodes in a process-local
// map. Commit is a no-op: there is nothing further to flush to.
func NewMemoryBackend() Backend {
	return &memoryBackend{nodes: make(map[types.Hash][]byte)}
}

func (b *memoryBackend) Get(hash types.Hash) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	data, ok := b.nodes[hash]
	if !ok {
		return nil, ErrNotFound
	}
	return data, nil
}

func (b *memoryBackend) Put(hash types.Hash, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nodes[hash] = data
	return nil
}

func (b *memoryBackend) PutBatch(entries map[types.Hash][]byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for h, d := range entries {
		b.nodes[h] = d
	}
	return nil
}

func (b *memoryBackend) Commit() error { return nil }

// NodeDatabase layers an in-memory dirty set over a Backend, so a trie can
// accumulate many mutations and flush them in one batched call at commit
// time rather than writing through on every hashed node. This is the same
// two-layer design (dirty cache + backing reader) the reference client
// uses between a live trie and its on-disk node store.
type NodeDatabase struct {
	mu    sync.RWMutex
	dirty map[types.Hash][]byte
	disk  Backend // nil for in-memory-only operation
	size  int
}

// NewNodeDatabase creates a trie node database backed by the given Backend.
// If disk is nil, the database operates in memory only and Commit is a
// no-op beyond clearing the dirty set.
func NewNodeDatabase(disk Backend) *NodeDatabase {
	return &NodeDatabase{
		dirty: make(map[types.Hash][]byte),
		disk:  disk,
	}
}

// Node retrieves a trie node by hash, checking the dirty cache before
// falling back to the backing Backend.
func (db *NodeDatabase) Node(hash types.Hash) ([]byte, error) {
	if hash.IsZero() {
		return nil, ErrNotFound
	}

	db.mu.RLock()
	if data, ok := db.dirty[hash]; ok {
		db.mu.RUnlock()
		return data, nil
	}
	db.mu.RUnlock()

	if db.disk != nil {
		data, err := db.disk.Get(hash)
		if err != nil {
			return nil, err
		}
		return data, nil
	}
	return nil, ErrNotFound
}

// InsertNode stores a trie node in the dirty cache.
func (db *NodeDatabase) InsertNode(hash types.Hash, data []byte) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.dirty[hash]; !ok {
		db.size += len(data)
	}
	db.dirty[hash] = data
}

// DirtySize returns the total byte size of uncommitted nodes.
func (db *NodeDatabase) DirtySize() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.size
}

// DirtyCount returns the number of uncommitted nodes.
func (db *NodeDatabase) DirtyCount() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.dirty)
}

// Commit writes all dirty nodes to the backend in a single batched call
// and clears the dirty cache. No-op if nothing changed since last commit.
func (db *NodeDatabase) Commit() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if len(db.dirty) == 0 {
		return nil
	}
	if db.disk != nil {
		if err := db.disk.PutBatch(db.dirty); err != nil {
			return NewBackendError(err)
		}
		if err := db.disk.Commit(); err != nil {
			return NewBackendError(err)
		}
	}
	db.dirty = make(map[types.Hash][]byte)
	db.size = 0
	return nil
}
