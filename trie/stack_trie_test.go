package trie

import (
	"bytes"
	"sort"
	"testing"

	"github.com/lambdaclass/ethrex-trie/types"
)

func TestStackTrieMatchesOrdinaryTrie(t *testing.T) {
	// P8: a StackTrie fed the same pairs in ascending order produces the
	// same root as inserting them one at a time into an ordinary Trie.
	pairs := map[string]string{
		"doe": "reindeer", "dog": "puppy", "dogglesworth": "cat",
		"alpha": "1", "beta": "2", "zzz": "last",
	}
	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ordinary := New()
	for _, k := range keys {
		mustPut(t, ordinary, k, pairs[k])
	}
	wantRoot := mustHash(t, ordinary)

	st := NewStackTrie(nil)
	for _, k := range keys {
		if err := st.Update([]byte(k), []byte(pairs[k])); err != nil {
			t.Fatalf("Update(%q): %v", k, err)
		}
	}
	gotRoot := st.Hash()

	if gotRoot != wantRoot {
		t.Fatalf("stack trie root = %s, want %s", gotRoot.Hex(), wantRoot.Hex())
	}
}

func TestStackTrieEmpty(t *testing.T) {
	st := NewStackTrie(nil)
	if got := st.Hash(); got != types.EmptyRootHash {
		t.Fatalf("empty stack trie root = %s, want %s", got.Hex(), types.EmptyRootHash.Hex())
	}
}

func TestStackTrieRejectsOutOfOrderKeys(t *testing.T) {
	st := NewStackTrie(nil)
	if err := st.Update([]byte("bbb"), []byte("1")); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := st.Update([]byte("aaa"), []byte("2")); err != ErrStackTrieOutOfOrder {
		t.Fatalf("Update out of order = %v, want ErrStackTrieOutOfOrder", err)
	}
}

func TestStackTrieRejectsUpdateAfterFinalize(t *testing.T) {
	st := NewStackTrie(nil)
	mustStackUpdate(t, st, "aaa", "1")
	st.Hash()
	if err := st.Update([]byte("bbb"), []byte("2")); err != ErrStackTrieFinalized {
		t.Fatalf("Update after Hash = %v, want ErrStackTrieFinalized", err)
	}
}

func TestStackTrieCommitPersistsToBackend(t *testing.T) {
	backend := NewMemoryBackend()
	st := NewStackTrie(backend)
	mustStackUpdate(t, st, "aaa", "1")
	mustStackUpdate(t, st, "bbb", "2")

	root, err := st.Commit()
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	reopened, err := OpenTrie(root, backend)
	if err != nil {
		t.Fatalf("OpenTrie: %v", err)
	}
	v, err := reopened.Get([]byte("bbb"))
	if err != nil || !bytes.Equal(v, []byte("2")) {
		t.Fatalf("get(bbb) after reopen = %q, %v; want 2, nil", v, err)
	}
}

func TestStackTrieResetClearsState(t *testing.T) {
	st := NewStackTrie(nil)
	mustStackUpdate(t, st, "aaa", "1")
	if st.Count() != 1 {
		t.Fatalf("Count = %d, want 1", st.Count())
	}
	st.Reset()
	if st.Count() != 0 {
		t.Fatalf("Count after Reset = %d, want 0", st.Count())
	}
	if got := st.Hash(); got != types.EmptyRootHash {
		t.Fatalf("root after Reset = %s, want empty root", got.Hex())
	}
}

func mustStackUpdate(t *testing.T, st *StackTrie, key, value string) {
	t.Helper()
	if err := st.Update([]byte(key), []byte(value)); err != nil {
		t.Fatalf("Update(%q, %q): %v", key, value, err)
	}
}
