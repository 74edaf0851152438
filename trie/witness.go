package trie

import (
	"sync"

	"github.com/lambdaclass/ethrex-trie/log"
	"github.com/lambdaclass/ethrex-trie/types"
)

// Witness wraps a Trie and records the RLP bytes of every node resolved
// from the backend during reads and writes, deduplicated by hash. The
// recorded set is the minimum data required to replay the same operations
// against a fresh, empty backend and reach the same root: effectively a
// running multi-proof over every key the wrapped trie has touched.
//
// Only the backend read path is logged. Owned nodes visited while walking
// the in-memory spine are already held by the caller; only a ByHash lookup
// (ordinary node resolution, or resolving an existing root) expands what a
// replay would need.
type Witness struct {
	trie *Trie
	log  *log.Logger

	mu      sync.Mutex
	entries map[types.Hash][]byte
}

// witnessBackend is the Backend a Witness installs in place of the
// wrapped trie's own backend, so every Get the trie issues is captured.
type witnessBackend struct {
	inner Backend
	w     *Witness
}

func (wb *witnessBackend) Get(hash types.Hash) ([]byte, error) {
	data, err := wb.inner.Get(hash)
	if err != nil {
		return nil, err
	}
	wb.w.record(hash, data)
	return data, nil
}

func (wb *witnessBackend) Put(hash types.Hash, data []byte) error {
	return wb.inner.Put(hash, data)
}

func (wb *witnessBackend) PutBatch(entries map[types.Hash][]byte) error {
	return wb.inner.PutBatch(entries)
}

func (wb *witnessBackend) Commit() error {
	return wb.inner.Commit()
}

// NewWitness wraps an existing trie opened against backend, installing a
// recording layer between the trie and backend. Every ByHash resolution
// the trie performs from this point on is captured.
func NewWitness(t *Trie, backend Backend) (*Witness, *Trie) {
	w := &Witness{
		entries: make(map[types.Hash][]byte),
		log:     t.log.With("component", "witness"),
	}
	wrapped := &Trie{
		root: t.root,
		db:   NewNodeDatabase(&witnessBackend{inner: backend, w: w}),
		log:  t.log,
	}
	w.trie = wrapped
	w.log.Debug("witness attached to existing trie")
	return w, wrapped
}

// OpenWitnessed opens a trie at root against backend with a witness
// already installed, so even the root's own resolution is recorded.
func OpenWitnessed(root types.Hash, backend Backend) (*Witness, *Trie, error) {
	w := &Witness{
		entries: make(map[types.Hash][]byte),
		log:     log.Default().Module("trie").With("component", "witness", "root", root.Hex()),
	}
	t, err := OpenTrie(root, &witnessBackend{inner: backend, w: w})
	if err != nil {
		w.log.Error("witness open failed", "err", err)
		return nil, nil, err
	}
	w.trie = t
	w.log.Debug("witness opened")
	return w, t, nil
}

func (w *Witness) record(hash types.Hash, data []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.entries[hash]; ok {
		return
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	w.entries[hash] = cp
}

// Nodes returns the deduplicated set of (hash, RLP-bytes) pairs recorded
// so far. Committing the wrapped trie does not prune this set: a witness
// only ever grows.
func (w *Witness) Nodes() map[types.Hash][]byte {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[types.Hash][]byte, len(w.entries))
	for h, d := range w.entries {
		out[h] = d
	}
	return out
}

// Len returns the number of distinct nodes recorded.
func (w *Witness) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.entries)
}

// Replay seeds a fresh in-memory backend with exactly the witnessed nodes
// and opens a trie against root using it, for verifying the witness is
// sufficient to reproduce every recorded access (P9).
func Replay(root types.Hash, nodes map[types.Hash][]byte) (*Trie, error) {
	rlog := log.Default().Module("trie").With("component", "replay", "root", root.Hex(), "nodes", len(nodes))
	backend := NewMemoryBackend()
	for h, d := range nodes {
		if err := backend.Put(h, d); err != nil {
			rlog.Error("replay seed failed", "err", err)
			return nil, NewBackendError(err)
		}
	}
	t, err := OpenTrie(root, backend)
	if err != nil {
		rlog.Error("replay insufficient", "err", err)
		return nil, err
	}
	rlog.Debug("replay succeeded")
	return t, nil
}
