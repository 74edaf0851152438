package trie

import (
	"bytes"
	"testing"
)

func TestIteratorVisitsEveryEntryInOrder(t *testing.T) {
	tr := New()
	pairs := map[string]string{
		"doe": "reindeer", "dog": "puppy", "dogglesworth": "cat",
		"alpha": "1", "beta": "2",
	}
	for k, v := range pairs {
		mustPut(t, tr, k, v)
	}

	it := NewIterator(tr)
	if err := it.Error(); err != nil {
		t.Fatalf("NewIterator: %v", err)
	}

	var gotKeys []string
	var prev []byte
	for it.Next() {
		key := it.Key()
		if prev != nil && !lessBytes(prev, key) {
			t.Fatalf("iterator not in ascending order: %x then %x", prev, key)
		}
		prev = append([]byte(nil), key...)
		want, ok := pairs[string(key)]
		if !ok {
			t.Fatalf("iterator produced unexpected key %q", key)
		}
		if !bytes.Equal(it.Value(), []byte(want)) {
			t.Fatalf("value for %q = %q, want %q", key, it.Value(), want)
		}
		gotKeys = append(gotKeys, string(key))
	}
	if len(gotKeys) != len(pairs) {
		t.Fatalf("iterator produced %d entries, want %d", len(gotKeys), len(pairs))
	}
}

func TestIteratorEmptyTrie(t *testing.T) {
	tr := New()
	it := NewIterator(tr)
	if it.Next() {
		t.Fatalf("expected no entries in an empty trie")
	}
	if err := it.Error(); err != nil {
		t.Fatalf("Error: %v", err)
	}
}

func TestCollectLeavesMatchesDirectGets(t *testing.T) {
	tr := New()
	mustPut(t, tr, "a", "1")
	mustPut(t, tr, "ab", "2")
	mustPut(t, tr, "abc", "3")

	leaves, err := CollectLeaves(tr)
	if err != nil {
		t.Fatalf("CollectLeaves: %v", err)
	}
	if len(leaves) != 3 {
		t.Fatalf("got %d leaves, want 3", len(leaves))
	}
	for _, kv := range leaves {
		got, err := tr.Get(kv[0])
		if err != nil || !bytes.Equal(got, kv[1]) {
			t.Fatalf("Get(%q) = %q, %v; want %q, nil", kv[0], got, err, kv[1])
		}
	}
}

func TestIteratorResolvesHashNodesFromBackend(t *testing.T) {
	backend := NewMemoryBackend()
	tr := NewWithBackend(backend)
	mustPut(t, tr, "doe", "reindeer")
	mustPut(t, tr, "dog", "puppy")
	mustPut(t, tr, "dogglesworth", "cat")
	root, err := tr.Hash()
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	reopened, err := OpenTrie(root, backend)
	if err != nil {
		t.Fatalf("OpenTrie: %v", err)
	}
	leaves, err := CollectLeaves(reopened)
	if err != nil {
		t.Fatalf("CollectLeaves after reopen: %v", err)
	}
	if len(leaves) != 3 {
		t.Fatalf("got %d leaves after reopen, want 3", len(leaves))
	}
}
