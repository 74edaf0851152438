package trie

import (
	"sort"

	"github.com/lambdaclass/ethrex-trie/types"
)

// Iterator walks every (key, value) pair stored in a Trie in ascending key
// order, resolving hashNode references through the trie's backend as
// needed. It is a snapshot: entries are collected up front rather than
// streamed, which keeps the walk itself simple at the cost of holding the
// full key set in memory.
type Iterator struct {
	entries []iterEntry
	pos     int
	err     error
}

type iterEntry struct {
	key   []byte
	value []byte
}

// NewIterator walks t from the root and returns an Iterator positioned
// before the first entry; call Next to advance to it.
func NewIterator(t *Trie) *Iterator {
	it := &Iterator{pos: -1}
	it.err = it.collect(t, t.root, nil)
	sort.Slice(it.entries, func(i, j int) bool {
		return lessBytes(it.entries[i].key, it.entries[j].key)
	})
	return it
}

func lessBytes(a, b []byte) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

func (it *Iterator) collect(t *Trie, n node, path []byte) error {
	switch n := n.(type) {
	case nil:
		return nil
	case valueNode:
		it.entries = append(it.entries, iterEntry{key: hexToKeybytes(path), value: []byte(n)})
		return nil
	case *shortNode:
		return it.collect(t, n.Val, append(append([]byte(nil), path...), n.Key...))
	case *fullNode:
		for i := 0; i < 16; i++ {
			if n.Children[i] != nil {
				if err := it.collect(t, n.Children[i], append(append([]byte(nil), path...), byte(i))); err != nil {
					return err
				}
			}
		}
		if n.Children[16] != nil {
			if err := it.collect(t, n.Children[16], append(append([]byte(nil), path...), terminatorByte)); err != nil {
				return err
			}
		}
		return nil
	case hashNode:
		resolved, err := t.resolveHash(n)
		if err != nil {
			return err
		}
		return it.collect(t, resolved, path)
	default:
		return nil
	}
}

// Next advances to the next entry, returning false once exhausted.
func (it *Iterator) Next() bool {
	if it.err != nil {
		return false
	}
	it.pos++
	return it.pos < len(it.entries)
}

// Key returns the current entry's raw (non-nibble) key.
func (it *Iterator) Key() []byte { return it.entries[it.pos].key }

// Value returns the current entry's value.
func (it *Iterator) Value() []byte { return it.entries[it.pos].value }

// Error returns the first error encountered while collecting entries, if
// any (typically a missing node the backend could not resolve).
func (it *Iterator) Error() error { return it.err }

// CollectLeaves returns every (key, value) pair in t as a sorted slice,
// for tests and for building a StackTrie-equivalent snapshot.
func CollectLeaves(t *Trie) ([][2][]byte, error) {
	it := NewIterator(t)
	if err := it.Error(); err != nil {
		return nil, err
	}
	var out [][2][]byte
	for it.Next() {
		out = append(out, [2][]byte{it.Key(), it.Value()})
	}
	return out, nil
}
