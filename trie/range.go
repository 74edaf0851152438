package trie

import (
	"bytes"

	"github.com/lambdaclass/ethrex-trie/crypto"
	"github.com/lambdaclass/ethrex-trie/types"
)

// VerifyRangeProof checks that keys/values is exactly the contiguous slice
// of the trie rooted at root lying in [firstKey, keys.last()], given the
// accompanying proof nodes (the union of the boundary single-path proofs
// for firstKey and keys.last(), as produced by Trie.MultiProve). It
// reports whether the trie holds at least one key strictly greater than
// keys.last().
//
// keys must be sorted, unique, and every entry must be >= firstKey; values
// must parallel keys one for one. A violation of either is reported as a
// failed verification, not a panic.
func VerifyRangeProof(root types.Hash, firstKey []byte, keys [][]byte, values [][]byte, proof [][]byte) (verified bool, moreRight bool, err error) {
	if len(keys) != len(values) {
		return false, false, nil
	}
	for i := 1; i < len(keys); i++ {
		if bytes.Compare(keys[i-1], keys[i]) >= 0 {
			return false, false, nil // not strictly ascending
		}
	}
	for _, k := range keys {
		if bytes.Compare(k, firstKey) < 0 {
			return false, false, nil
		}
	}

	backend := NewMemoryBackend()
	for _, enc := range proof {
		h := crypto.Keccak256Hash(enc)
		if err := backend.Put(h, enc); err != nil {
			return false, false, NewBackendError(err)
		}
	}

	t, err := OpenTrie(root, backend)
	if err != nil {
		return false, false, nil // proof does not even establish the root
	}

	if len(keys) == 0 {
		val, getErr := t.Get(firstKey)
		if getErr != nil {
			return false, false, nil
		}
		if val != nil {
			return false, false, nil // firstKey is supposed to be absent
		}
		prefix := stripTerminator(keybytesToHex(firstKey))
		if anyKeyFrom(t.root, prefix, 0) {
			return false, false, nil
		}
		return true, false, nil
	}

	for i, key := range keys {
		if err := t.Put(key, values[i]); err != nil {
			return false, false, nil // proof insufficient to reconstruct this leaf
		}
	}

	recomputed := t.HashNoCommit()
	if recomputed != root {
		return false, false, nil
	}

	lastPath := keybytesToHex(keys[len(keys)-1])
	return true, moreRightOf(t.root, lastPath, 0), nil
}

func stripTerminator(hex []byte) []byte {
	if len(hex) == 0 {
		return hex
	}
	return hex[:len(hex)-1]
}

// moreRightOf reports whether the subtree rooted at n holds any key whose
// nibble path, compared to path, diverges to a strictly greater nibble, or
// continues past path's end. An unresolved hashNode sibling counts as
// "maybe more" per the conservative rule: a placeholder that appeared in
// the proof but was never decoded still represents real, uninspected data.
func moreRightOf(n node, path []byte, pos int) bool {
	switch n := n.(type) {
	case nil:
		return false
	case valueNode:
		return false
	case hashNode:
		return true

	case *shortNode:
		matchLen := prefixLen(n.Key, path[pos:])
		if matchLen < len(n.Key) {
			if matchLen >= len(path)-pos {
				return false
			}
			return n.Key[matchLen] > path[pos+matchLen]
		}
		return moreRightOf(n.Val, path, pos+len(n.Key))

	case *fullNode:
		if pos >= len(path) {
			for i := 0; i < 16; i++ {
				if n.Children[i] != nil {
					return true
				}
			}
			return false
		}
		nibble := path[pos]
		start := int(nibble) + 1
		if nibble == terminatorByte {
			start = 0 // path ends here: every child key extends it
		}
		for i := start; i < 16; i++ {
			if n.Children[i] != nil {
				return true
			}
		}
		if nibble < 16 {
			return moreRightOf(n.Children[nibble], path, pos+1)
		}
		return moreRightOf(n.Children[16], path, pos+1)

	default:
		return false
	}
}

// anyKeyFrom reports whether the subtree rooted at n holds any key whose
// nibble path is >= path (path given without a terminator nibble, i.e. as
// a plain prefix), used to check the right edge of an empty-range proof.
func anyKeyFrom(n node, path []byte, pos int) bool {
	switch n := n.(type) {
	case nil:
		return false
	case valueNode:
		return true
	case hashNode:
		return true

	case *shortNode:
		if pos >= len(path) {
			return true
		}
		matchLen := prefixLen(n.Key, path[pos:])
		if matchLen < len(n.Key) {
			if matchLen >= len(path)-pos {
				return true
			}
			// A terminator here means the key ends before path does.
			return n.Key[matchLen] != terminatorByte && n.Key[matchLen] >= path[pos+matchLen]
		}
		return anyKeyFrom(n.Val, path, pos+matchLen)

	case *fullNode:
		if pos >= len(path) {
			return true
		}
		nibble := path[pos]
		// Slot 16 (the value) holds a key shorter than path, so it is skipped.
		for i := int(nibble) + 1; i < 16; i++ {
			if n.Children[i] != nil {
				return true
			}
		}
		return anyKeyFrom(n.Children[nibble], path, pos+1)

	default:
		return false
	}
}
