package trie

import (
	"bytes"
	"testing"

	"github.com/lambdaclass/ethrex-trie/crypto"
	"github.com/lambdaclass/ethrex-trie/types"
)

func mustHash(t *testing.T, tr *Trie) types.Hash {
	t.Helper()
	h, err := tr.Hash()
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	return h
}

func TestEmptyTrie(t *testing.T) {
	tr := New()
	got := mustHash(t, tr)
	if got != types.EmptyRootHash {
		t.Fatalf("empty trie hash = %s, want %s", got.Hex(), types.EmptyRootHash.Hex())
	}
	if got != emptyRoot {
		t.Fatalf("empty trie hash does not match the locally recomputed emptyRoot")
	}
}

func TestSingleShortValue(t *testing.T) {
	// Scenario 2: insert key 0x (empty) -> value 0x76 ("v").
	tr := New()
	if err := tr.Put([]byte{}, []byte("v")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	leafKey := hexToCompact([]byte{terminatorByte})
	enc, err := encodeShortNode(&shortNode{Key: leafKey, Val: valueNode("v")})
	if err != nil {
		t.Fatalf("encodeShortNode: %v", err)
	}
	wantRoot := crypto.Keccak256Hash(enc)
	if got := mustHash(t, tr); got != wantRoot {
		t.Fatalf("root = %s, want %s", got.Hex(), wantRoot.Hex())
	}

	value, err := tr.Get([]byte{})
	if err != nil || !bytes.Equal(value, []byte("v")) {
		t.Fatalf("Get empty key = %q, %v; want %q, nil", value, err, "v")
	}
}

func TestInsertThreeKeysSharedPrefix(t *testing.T) {
	// "doe"/"dog"/"dogglesworth" share prefix nibbles and force a branch
	// partway down an extension; root hash must be stable and independent
	// of re-deriving it from scratch with the same entries.
	tr := New()
	mustPut(t, tr, "doe", "reindeer")
	mustPut(t, tr, "dog", "puppy")
	mustPut(t, tr, "dogglesworth", "cat")
	got := mustHash(t, tr)

	again := New()
	mustPut(t, again, "doe", "reindeer")
	mustPut(t, again, "dog", "puppy")
	mustPut(t, again, "dogglesworth", "cat")
	want := mustHash(t, again)

	if got != want {
		t.Fatalf("root = %s, want %s", got.Hex(), want.Hex())
	}
	for k, v := range map[string]string{"doe": "reindeer", "dog": "puppy", "dogglesworth": "cat"} {
		got, err := tr.Get([]byte(k))
		if err != nil || !bytes.Equal(got, []byte(v)) {
			t.Fatalf("get(%q) = %q, %v; want %q, nil", k, got, err, v)
		}
	}
}

func TestInsertLongValue(t *testing.T) {
	tr := New()
	mustPut(t, tr, "A", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	got, err := tr.Get([]byte("A"))
	if err != nil || !bytes.Equal(got, []byte("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")) {
		t.Fatalf("get(A) = %q, %v", got, err)
	}
	if h := mustHash(t, tr); h == types.EmptyRootHash {
		t.Fatalf("root must not equal the empty root after an insert")
	}
}

func TestDeleteGethVector(t *testing.T) {
	tr := New()
	mustPut(t, tr, "do", "verb")
	mustPut(t, tr, "ether", "wookiedoo")
	mustPut(t, tr, "horse", "stallion")
	mustPut(t, tr, "shaman", "horse")
	mustPut(t, tr, "doge", "coin")
	if err := tr.Delete([]byte("ether")); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	mustPut(t, tr, "dog", "puppy")
	if err := tr.Delete([]byte("shaman")); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	exp := New()
	mustPut(t, exp, "do", "verb")
	mustPut(t, exp, "horse", "stallion")
	mustPut(t, exp, "doge", "coin")
	mustPut(t, exp, "dog", "puppy")

	if got, want := mustHash(t, tr), mustHash(t, exp); got != want {
		t.Fatalf("root = %s, want %s", got.Hex(), want.Hex())
	}
}

func TestTwoDivergingKeys(t *testing.T) {
	// Scenario 3.
	tr := New()
	mustPut(t, tr, string([]byte{0x01}), string([]byte{0xAA}))
	mustPut(t, tr, string([]byte{0x02}), string([]byte{0xBB}))

	if v, _ := tr.Get([]byte{0x01}); !bytes.Equal(v, []byte{0xAA}) {
		t.Fatalf("get(0x01) = %x, want aa", v)
	}
	if v, _ := tr.Get([]byte{0x02}); !bytes.Equal(v, []byte{0xBB}) {
		t.Fatalf("get(0x02) = %x, want bb", v)
	}
	if v, err := tr.Get([]byte{0x03}); err != nil || v != nil {
		t.Fatalf("get(0x03) = %x, %v; want nil, nil", v, err)
	}
}

func TestSharedPrefixCollapseOnRemove(t *testing.T) {
	// Scenario 4.
	tr := New()
	mustPut(t, tr, string([]byte{0x12, 0x34}), string([]byte{0x01}))
	mustPut(t, tr, string([]byte{0x12, 0x35}), string([]byte{0x02}))
	mustPut(t, tr, string([]byte{0x13, 0x00}), string([]byte{0x03}))
	if err := tr.Delete([]byte{0x13, 0x00}); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	fresh := New()
	mustPut(t, fresh, string([]byte{0x12, 0x34}), string([]byte{0x01}))
	mustPut(t, fresh, string([]byte{0x12, 0x35}), string([]byte{0x02}))

	if got, want := mustHash(t, tr), mustHash(t, fresh); got != want {
		t.Fatalf("root after collapse = %s, want %s", got.Hex(), want.Hex())
	}
}

func TestOverwrite(t *testing.T) {
	tr := New()
	mustPut(t, tr, "key", "v1")
	mustPut(t, tr, "key", "v2")
	v, err := tr.Get([]byte("key"))
	if err != nil || !bytes.Equal(v, []byte("v2")) {
		t.Fatalf("get(key) = %q, %v; want v2, nil", v, err)
	}
}

func TestInsertThenRemoveMatchesNeverInserted(t *testing.T) {
	tr := New()
	mustPut(t, tr, "alpha", "1")
	mustPut(t, tr, "beta", "2")
	mustPut(t, tr, "gamma", "3")
	if err := tr.Delete([]byte("gamma")); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	fresh := New()
	mustPut(t, fresh, "alpha", "1")
	mustPut(t, fresh, "beta", "2")

	if got, want := mustHash(t, tr), mustHash(t, fresh); got != want {
		t.Fatalf("root = %s, want %s", got.Hex(), want.Hex())
	}
}

func TestOrderIndependence(t *testing.T) {
	pairs := [][2]string{
		{"doe", "reindeer"}, {"dog", "puppy"}, {"dogglesworth", "cat"},
		{"alpha", "1"}, {"beta", "2"},
	}
	orderA := New()
	for _, p := range pairs {
		mustPut(t, orderA, p[0], p[1])
	}

	orderB := New()
	for i := len(pairs) - 1; i >= 0; i-- {
		mustPut(t, orderB, pairs[i][0], pairs[i][1])
	}

	if got, want := mustHash(t, orderA), mustHash(t, orderB); got != want {
		t.Fatalf("root depends on insertion order: %s != %s", got.Hex(), want.Hex())
	}
}

func TestCommitAndReopen(t *testing.T) {
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
	v, err := reopened.Get([]byte("dog"))
	if err != nil || !bytes.Equal(v, []byte("puppy")) {
		t.Fatalf("get(dog) after reopen = %q, %v; want puppy, nil", v, err)
	}
}

func TestOpenMissingRootErrors(t *testing.T) {
	backend := NewMemoryBackend()
	missing := types.HexToHash("11111111111111111111111111111111111111111111111111111111111111")
	_, err := OpenTrie(missing, backend)
	if err == nil {
		t.Fatalf("expected an error opening a root absent from the backend")
	}
}

func mustPut(t *testing.T, tr *Trie, key, value string) {
	t.Helper()
	if err := tr.Put([]byte(key), []byte(value)); err != nil {
		t.Fatalf("Put(%q, %q): %v", key, value, err)
	}
}
