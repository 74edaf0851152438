package trie

import (
	"fmt"

	"github.com/lambdaclass/ethrex-trie/crypto"
	"github.com/lambdaclass/ethrex-trie/log"
	"github.com/lambdaclass/ethrex-trie/rlp"
	"github.com/lambdaclass/ethrex-trie/types"
)

// emptyRoot is the root hash of an empty trie: Keccak256(RLP("")).
// RLP("") = 0x80, so emptyRoot = Keccak256([]byte{0x80}).
var emptyRoot = crypto.Keccak256Hash(func() []byte {
	b, _ := rlp.EncodeToBytes([]byte{})
	return b
}())

// Trie is a Merkle Patricia Trie. A zero-value Trie (via New) is empty and
// stateless: it holds every node in memory and never touches a backend,
// which is useful for scratch tries built purely to produce or verify a
// proof. Opening a trie against an existing root (OpenTrie) or wiring a
// backend onto a fresh one (NewWithBackend) lets hashNode references be
// resolved lazily and lets Commit flush new nodes out.
type Trie struct {
	root node
	db   *NodeDatabase // nil: stateless, no resolution, no commit target
	log  *log.Logger
}

// New creates a new, empty, stateless Merkle Patricia Trie with no backend.
// Get/Put/Delete never touch storage; Commit is a no-op.
func New() *Trie {
	return &Trie{log: log.Default().Module("trie")}
}

// NewWithBackend creates a new, empty trie whose Commit flushes into
// backend and whose traversal resolves hashNode references against it.
func NewWithBackend(backend Backend) *Trie {
	return &Trie{db: NewNodeDatabase(backend), log: log.Default().Module("trie")}
}

// OpenTrie opens a trie rooted at root against backend, resolving the root
// node immediately. Returns ErrEmptyRootWithNoHash if root is the all-zero
// hash (ambiguous with "uninitialized", and distinct from the canonical
// empty-trie root, which this func returns successfully with an empty
// Trie), and NewRootNotFoundError if the backend has no node for root.
func OpenTrie(root types.Hash, backend Backend) (*Trie, error) {
	t := NewWithBackend(backend)
	if root == emptyRoot {
		return t, nil
	}
	if root.IsZero() {
		return nil, ErrEmptyRootWithNoHash
	}
	data, err := t.db.Node(root)
	if err != nil {
		return nil, NewRootNotFoundError(root)
	}
	n, err := decodeNode(hashNode(root.Bytes()), data)
	if err != nil {
		return nil, err
	}
	t.root = n
	return t, nil
}

// resolveHash loads and decodes a node from the backend by hash. Every
// ByHash lookup on the read path is exactly what the witness wraps.
func (t *Trie) resolveHash(hash hashNode) (node, error) {
	if t.db == nil {
		return nil, NewMissingNodeError(types.BytesToHash(hash))
	}
	data, err := t.db.Node(types.BytesToHash(hash))
	if err != nil {
		return nil, NewMissingNodeError(types.BytesToHash(hash))
	}
	return decodeNode(hash, data)
}

// resolveExtensionChild resolves a hashNode known to be the direct child
// of an Extension, reporting ErrMissingExtensionChild (rather than the
// generic ErrMissingNode) when the backend cannot satisfy it.
func (t *Trie) resolveExtensionChild(hash hashNode) (node, error) {
	n, err := t.resolveHash(hash)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingExtensionChild, types.BytesToHash(hash).Hex())
	}
	return n, nil
}

// resolveBranchChild resolves a hashNode known to be a direct choice of a
// Branch, reporting ErrMissingBranchChild (rather than the generic
// ErrMissingNode) when the backend cannot satisfy it.
func (t *Trie) resolveBranchChild(hash hashNode) (node, error) {
	n, err := t.resolveHash(hash)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingBranchChild, types.BytesToHash(hash).Hex())
	}
	return n, nil
}

// Get retrieves the value associated with the given key. A key that is
// absent returns (nil, nil), not an error; only a missing-node resolution
// failure is surfaced as an error.
func (t *Trie) Get(key []byte) ([]byte, error) {
	value, _, err := t.get(t.root, keybytesToHex(key), 0)
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (t *Trie) get(n node, key []byte, pos int) ([]byte, bool, error) {
	switch n := n.(type) {
	case nil:
		return nil, false, nil
	case valueNode:
		return []byte(n), true, nil
	case *shortNode:
		if len(key)-pos < len(n.Key) || !keysEqual(n.Key, key[pos:pos+len(n.Key)]) {
			return nil, false, nil
		}
		child := n.Val
		if hn, ok := child.(hashNode); ok {
			resolved, err := t.resolveExtensionChild(hn)
			if err != nil {
				return nil, false, err
			}
			child = resolved
		}
		return t.get(child, key, pos+len(n.Key))
	case *fullNode:
		if pos >= len(key) {
			return t.get(n.Children[16], key, pos)
		}
		child := n.Children[key[pos]]
		if hn, ok := child.(hashNode); ok {
			resolved, err := t.resolveBranchChild(hn)
			if err != nil {
				return nil, false, err
			}
			child = resolved
		}
		return t.get(child, key, pos+1)
	case hashNode:
		resolved, err := t.resolveHash(n)
		if err != nil {
			return nil, false, err
		}
		return t.get(resolved, key, pos)
	default:
		return nil, false, nil
	}
}

// Put inserts or updates a key-value pair in the trie. If value is
// empty/nil, the key is deleted instead. On a missing-node resolution
// failure, the trie is left unmodified and the error is returned.
func (t *Trie) Put(key, value []byte) error {
	if len(value) == 0 {
		return t.Delete(key)
	}
	k := keybytesToHex(key)
	n, err := t.insert(t.root, nil, k, valueNode(value))
	if err != nil {
		return err
	}
	t.root = n
	return nil
}

func (t *Trie) insert(n node, prefix, key []byte, value node) (node, error) {
	if len(key) == 0 {
		if v, ok := n.(valueNode); ok {
			if keysEqual(v, value.(valueNode)) {
				return v, nil
			}
		}
		return value, nil
	}

	switch n := n.(type) {
	case nil:
		return &shortNode{Key: key, Val: value, flags: nodeFlag{dirty: true}}, nil

	case *shortNode:
		matchLen := prefixLen(key, n.Key)
		if matchLen == len(n.Key) {
			child := n.Val
			if hn, ok := child.(hashNode); ok {
				resolved, err := t.resolveExtensionChild(hn)
				if err != nil {
					return nil, err
				}
				child = resolved
			}
			nn, err := t.insert(child, append(prefix, key[:matchLen]...), key[matchLen:], value)
			if err != nil {
				return nil, err
			}
			return &shortNode{Key: n.Key, Val: nn, flags: nodeFlag{dirty: true}}, nil
		}
		// Split: diverging nibble on each side becomes a branch slot; if
		// a remainder is empty, its value lands at the branch value slot.
		branch := &fullNode{flags: nodeFlag{dirty: true}}
		existingChild, err := t.insert(nil, append(prefix, n.Key[:matchLen+1]...), n.Key[matchLen+1:], n.Val)
		if err != nil {
			return nil, err
		}
		branch.Children[n.Key[matchLen]] = existingChild
		newChild, err := t.insert(nil, append(prefix, key[:matchLen+1]...), key[matchLen+1:], value)
		if err != nil {
			return nil, err
		}
		branch.Children[key[matchLen]] = newChild
		if matchLen > 0 {
			return &shortNode{Key: key[:matchLen], Val: branch, flags: nodeFlag{dirty: true}}, nil
		}
		return branch, nil

	case *fullNode:
		nn := n.copy()
		nn.flags = nodeFlag{dirty: true}
		existing := n.Children[key[0]]
		if hn, ok := existing.(hashNode); ok {
			resolved, err := t.resolveBranchChild(hn)
			if err != nil {
				return nil, err
			}
			existing = resolved
		}
		child, err := t.insert(existing, append(prefix, key[0]), key[1:], value)
		if err != nil {
			return nil, err
		}
		nn.Children[key[0]] = child
		return nn, nil

	case hashNode:
		resolved, err := t.resolveHash(n)
		if err != nil {
			return nil, err
		}
		return t.insert(resolved, prefix, key, value)

	default:
		return nil, NewInvalidInputError("unknown node type during insert")
	}
}

// Delete removes a key from the trie. If the key does not exist, Delete is
// a no-op. On a missing-node resolution failure, the trie is left
// unmodified and the error is returned.
func (t *Trie) Delete(key []byte) error {
	k := keybytesToHex(key)
	n, err := t.delete(t.root, nil, k)
	if err != nil {
		return err
	}
	t.root = n
	return nil
}

func (t *Trie) delete(n node, prefix, key []byte) (node, error) {
	switch n := n.(type) {
	case nil:
		return nil, nil

	case *shortNode:
		matchLen := prefixLen(key, n.Key)
		if matchLen < len(n.Key) {
			return n, nil // key absent in this subtree
		}
		if matchLen == len(key) {
			return nil, nil // exact match: remove this node entirely
		}
		existing := n.Val
		if hn, ok := existing.(hashNode); ok {
			resolved, err := t.resolveExtensionChild(hn)
			if err != nil {
				return nil, err
			}
			existing = resolved
		}
		child, err := t.delete(existing, append(prefix, key[:len(n.Key)]...), key[len(n.Key):])
		if err != nil {
			return nil, err
		}
		switch child := child.(type) {
		case nil:
			return nil, nil
		case *shortNode:
			// Extension-merge-through-child / Leaf merge: concatenate paths.
			return &shortNode{Key: concat(n.Key, child.Key), Val: child.Val, flags: nodeFlag{dirty: true}}, nil
		default:
			return &shortNode{Key: n.Key, Val: child, flags: nodeFlag{dirty: true}}, nil
		}

	case *fullNode:
		nn := n.copy()
		nn.flags = nodeFlag{dirty: true}
		existing := n.Children[key[0]]
		if hn, ok := existing.(hashNode); ok {
			resolved, err := t.resolveBranchChild(hn)
			if err != nil {
				return nil, err
			}
			existing = resolved
		}
		child, err := t.delete(existing, append(prefix, key[0]), key[1:])
		if err != nil {
			return nil, err
		}
		nn.Children[key[0]] = child

		// Count remaining children, left to right (slot 0x0..0xF, then the
		// value slot 16), to find the collapse candidate deterministically.
		remaining := -1
		for i := 0; i < 17; i++ {
			if nn.Children[i] != nil {
				if remaining >= 0 {
					return nn, nil // more than one child: keep the branch
				}
				remaining = i
			}
		}
		if remaining < 0 {
			return nil, nil // Branch with zero children and no value.
		}
		if remaining == 16 {
			// Branch-to-Leaf: the one remaining slot was the value.
			return &shortNode{Key: []byte{terminatorByte}, Val: nn.Children[16], flags: nodeFlag{dirty: true}}, nil
		}
		child = nn.Children[remaining]
		if hn, ok := child.(hashNode); ok {
			// Resolve a by-hash child so a Leaf/Extension behind it merges.
			resolved, err := t.resolveBranchChild(hn)
			if err != nil {
				return nil, err
			}
			child = resolved
		}
		if cnode, ok := child.(*shortNode); ok {
			// Branch-merge-into-child: prepend the branch nibble.
			return &shortNode{Key: concat([]byte{byte(remaining)}, cnode.Key), Val: cnode.Val, flags: nodeFlag{dirty: true}}, nil
		}
		// Child is a fullNode: wrap in a single-nibble Extension.
		return &shortNode{Key: []byte{byte(remaining)}, Val: child, flags: nodeFlag{dirty: true}}, nil

	case valueNode:
		if len(key) == 0 {
			return nil, nil
		}
		return n, nil

	case hashNode:
		resolved, err := t.resolveHash(n)
		if err != nil {
			return nil, err
		}
		return t.delete(resolved, prefix, key)

	default:
		return nil, NewInvalidInputError("unknown node type during delete")
	}
}

// HashNoCommit computes the root hash, filling lazy hash cells on the
// owned spine, without touching the backend.
func (t *Trie) HashNoCommit() types.Hash {
	if t.root == nil {
		return emptyRoot
	}
	h := newHasher()
	hashed, cached := h.hash(t.root, true)
	t.root = cached
	switch n := hashed.(type) {
	case hashNode:
		return types.BytesToHash(n)
	default:
		enc, _ := encodeNode(hashed)
		return crypto.Keccak256Hash(enc)
	}
}

// Hash computes the root hash and commits pending changes to the backend
// (a no-op when the trie is stateless). Idempotent between mutations.
func (t *Trie) Hash() (types.Hash, error) {
	root := t.HashNoCommit()
	if err := t.Commit(); err != nil {
		return types.Hash{}, err
	}
	return root, nil
}

// Commit flushes every newly hashed node into the backend in a single
// batched call. The in-memory spine keeps its owned nodes, each now
// carrying its hash; they are not replaced with hashNode references.
// No-op if the trie is stateless or nothing changed since the last commit.
func (t *Trie) Commit() error {
	if t.db == nil {
		return nil
	}
	if t.root == nil {
		return t.db.Commit()
	}
	hashed, cached := commitNode(t.root, t.db)
	t.root = cached
	if hn, ok := hashed.(hashNode); !ok {
		enc, err := encodeNode(hashed)
		if err != nil {
			return NewDecodingError(err)
		}
		h := crypto.Keccak256Hash(enc)
		t.db.InsertNode(h, enc)
	} else {
		_ = hn
	}
	if err := t.db.Commit(); err != nil {
		return err
	}
	t.log.Debug("trie committed")
	return nil
}

// commitNode recursively hashes and collects every node whose encoding is
// large enough to be stored by hash, replacing owned children with
// hashNode references in the collapsed form while keeping the cached form
// (with lazily-filled hash cells) as the trie's live in-memory spine.
func commitNode(n node, db *NodeDatabase) (node, node) {
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
			childH, childC := commitNode(n.Val, db)
			collapsed.Val = childH
			cached.Val = childC
		}
		enc, err := encodeNode(collapsed)
		if err != nil {
			return collapsed, cached
		}
		if len(enc) >= 32 {
			hash := crypto.Keccak256(enc)
			db.InsertNode(types.BytesToHash(hash), enc)
			hn := hashNode(hash)
			cached.flags.hash = hn
			cached.flags.dirty = false
			return hn, cached
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
				childH, childC := commitNode(n.Children[i], db)
				collapsed.Children[i] = childH
				cached.Children[i] = childC
			}
		}
		enc, err := encodeNode(collapsed)
		if err != nil {
			return collapsed, cached
		}
		if len(enc) >= 32 {
			hash := crypto.Keccak256(enc)
			db.InsertNode(types.BytesToHash(hash), enc)
			hn := hashNode(hash)
			cached.flags.hash = hn
			cached.flags.dirty = false
			return hn, cached
		}
		return collapsed, cached
	}
	return n, n
}

// Len returns the number of key-value pairs stored in the trie. This
// traverses the owned spine only: it does not resolve hashNode children,
// so it undercounts a trie whose nodes have been committed and discarded.
func (t *Trie) Len() int {
	return countValues(t.root)
}

// Empty returns true if the trie has no entries.
func (t *Trie) Empty() bool {
	return t.root == nil
}

func countValues(n node) int {
	switch n := n.(type) {
	case nil:
		return 0
	case valueNode:
		return 1
	case *shortNode:
		return countValues(n.Val)
	case *fullNode:
		count := 0
		for i := 0; i < 17; i++ {
			count += countValues(n.Children[i])
		}
		return count
	case hashNode:
		return 0
	default:
		return 0
	}
}

func keysEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func concat(a, b []byte) []byte {
	r := make([]byte, len(a)+len(b))
	copy(r, a)
	copy(r[len(a):], b)
	return r
}
