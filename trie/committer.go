package trie

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/lambdaclass/ethrex-trie/crypto"
	"github.com/lambdaclass/ethrex-trie/log"
	"github.com/lambdaclass/ethrex-trie/metrics"
	"github.com/lambdaclass/ethrex-trie/types"
)

// CommitMetrics reports statistics about a single TrieCommitter.Commit call.
type CommitMetrics struct {
	NodesWritten int64
	BytesFlushed int64
	DirtyBefore  int64
	DirtyAfter   int64
	CommitTimeNs int64
	HashTimeNs   int64
}

// TrieCommitter is a higher-level commit pipeline above a single Trie's own
// Commit method: it keeps a reference count per stored node hash,
// incremented each time a commit writes that node (Dereference decrements
// only the given root's own count, not the counts of the nodes below it),
// and accumulates metrics across repeated commits, pushing the node count
// and duration into the metrics package.
// All methods are safe for concurrent use.
type TrieCommitter struct {
	mu     sync.Mutex
	nodeDB *NodeDatabase
	log    *log.Logger

	refsMu sync.RWMutex
	refs   map[types.Hash]int32

	totalNodes   atomic.Int64
	totalBytes   atomic.Int64
	totalCommits atomic.Int64
}

// NewTrieCommitter creates a committer backed by db.
func NewTrieCommitter(db *NodeDatabase) *TrieCommitter {
	return &TrieCommitter{
		nodeDB: db,
		refs:   make(map[types.Hash]int32),
		log:    log.Default().Module("trie").With("component", "committer"),
	}
}

// Commit hashes and stores every dirty node reachable from t's root into
// the committer's node database, recording a reference to each stored
// node so Dereference can later discover when it becomes collectible.
func (tc *TrieCommitter) Commit(t *Trie) (types.Hash, *CommitMetrics, error) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	m := &CommitMetrics{DirtyBefore: int64(tc.nodeDB.DirtyCount())}

	if t.root == nil {
		m.DirtyAfter = int64(tc.nodeDB.DirtyCount())
		tc.log.Debug("commit finished", "root", types.EmptyRootHash.Hex(), "nodes_written", 0)
		return types.EmptyRootHash, m, nil
	}

	hashStart := time.Now()
	t.HashNoCommit()
	m.HashTimeNs = time.Since(hashStart).Nanoseconds()

	commitStart := time.Now()
	var written []types.Hash
	var bytesFlushed int64
	hashed, cached := commitNodeCounting(t.root, tc.nodeDB, &written, &bytesFlushed)
	t.root = cached
	for _, h := range written {
		tc.addRef(h)
	}
	m.CommitTimeNs = time.Since(commitStart).Nanoseconds()
	m.NodesWritten = int64(len(written))
	m.BytesFlushed = bytesFlushed
	m.DirtyAfter = int64(tc.nodeDB.DirtyCount())

	var rootHash types.Hash
	if hn, ok := hashed.(hashNode); ok {
		rootHash = types.BytesToHash(hn)
	} else {
		enc, err := encodeNode(hashed)
		if err != nil {
			return types.Hash{}, m, NewDecodingError(err)
		}
		rootHash = crypto.Keccak256Hash(enc)
		tc.nodeDB.InsertNode(rootHash, enc)
		tc.addRef(rootHash)
		m.NodesWritten++
		m.BytesFlushed += int64(len(enc))
	}

	tc.totalNodes.Add(m.NodesWritten)
	tc.totalBytes.Add(m.BytesFlushed)
	tc.totalCommits.Add(1)
	metrics.ObserveCommit(int(m.NodesWritten), time.Duration(m.CommitTimeNs+m.HashTimeNs).Seconds())

	tc.log.Debug("commit finished",
		"root", rootHash.Hex(),
		"nodes_written", m.NodesWritten,
		"bytes_flushed", m.BytesFlushed,
		"ref_count", tc.RefCount(rootHash),
	)

	return rootHash, m, nil
}

// commitNodeCounting is commitNode (see trie.go) instrumented to record
// every hash written, for reference counting and metrics.
func commitNodeCounting(n node, db *NodeDatabase, written *[]types.Hash, bytesFlushed *int64) (node, node) {
	switch n := n.(type) {
	case nil:
		return nil, nil
	case valueNode:
		return n, n
	case hashNode:
		return n, n

	case *shortNode:
		if hash, dirty := n.cache(); hash != nil && !dirty {
			return hash, n
		}
		collapsed := n.copy()
		collapsed.Key = hexToCompact(n.Key)
		cached := n.copy()
		if _, ok := n.Val.(valueNode); !ok {
			childH, childC := commitNodeCounting(n.Val, db, written, bytesFlushed)
			collapsed.Val = childH
			cached.Val = childC
		}
		enc, err := encodeNode(collapsed)
		if err != nil {
			return collapsed, cached
		}
		if len(enc) >= 32 {
			h := crypto.Keccak256Hash(enc)
			db.InsertNode(h, enc)
			*written = append(*written, h)
			*bytesFlushed += int64(len(enc))
			cached.flags.hash = hashNode(h[:])
			cached.flags.dirty = false
			return hashNode(h[:]), cached
		}
		return collapsed, cached

	case *fullNode:
		if hash, dirty := n.cache(); hash != nil && !dirty {
			return hash, n
		}
		collapsed := n.copy()
		cached := n.copy()
		for i := 0; i < 16; i++ {
			if n.Children[i] != nil {
				childH, childC := commitNodeCounting(n.Children[i], db, written, bytesFlushed)
				collapsed.Children[i] = childH
				cached.Children[i] = childC
			}
		}
		enc, err := encodeNode(collapsed)
		if err != nil {
			return collapsed, cached
		}
		if len(enc) >= 32 {
			h := crypto.Keccak256Hash(enc)
			db.InsertNode(h, enc)
			*written = append(*written, h)
			*bytesFlushed += int64(len(enc))
			cached.flags.hash = hashNode(h[:])
			cached.flags.dirty = false
			return hashNode(h[:]), cached
		}
		return collapsed, cached
	}
	return n, n
}

// Flush commits every dirty node in the node database to its disk backend,
// returning the number of nodes flushed.
func (tc *TrieCommitter) Flush() (int, error) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	count := tc.nodeDB.DirtyCount()
	if err := tc.nodeDB.Commit(); err != nil {
		return 0, err
	}
	return count, nil
}

// Dereference decrements the reference count for root. When it reaches
// zero, root is returned as now collectible (its nodes may still be
// referenced by other roots and are not otherwise pruned; callers that
// want to reclaim storage compare against other held roots themselves).
func (tc *TrieCommitter) Dereference(root types.Hash) (collectible bool) {
	tc.refsMu.Lock()
	defer tc.refsMu.Unlock()

	if root == types.EmptyRootHash || root.IsZero() {
		return false
	}
	tc.refs[root]--
	if tc.refs[root] <= 0 {
		delete(tc.refs, root)
		tc.log.Debug("root collectible", "root", root.Hex())
		return true
	}
	return false
}

// RefCount returns the current reference count for hash.
func (tc *TrieCommitter) RefCount(hash types.Hash) int32 {
	tc.refsMu.RLock()
	defer tc.refsMu.RUnlock()
	return tc.refs[hash]
}

// TotalMetrics returns accumulated totals across every commit this
// committer has performed.
func (tc *TrieCommitter) TotalMetrics() (nodes, bytesWritten, commits int64) {
	return tc.totalNodes.Load(), tc.totalBytes.Load(), tc.totalCommits.Load()
}

func (tc *TrieCommitter) addRef(hash types.Hash) {
	tc.refsMu.Lock()
	defer tc.refsMu.Unlock()
	tc.refs[hash]++
}
