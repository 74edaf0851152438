package trie

import "testing"

func buildRangeTrie(t *testing.T) (*Trie, []string, []string) {
	t.Helper()
	keys := []string{"aaa", "bbb", "ccc", "ddd", "eee"}
	vals := []string{"1", "2", "3", "4", "5"}
	tr := New()
	for i, k := range keys {
		mustPut(t, tr, k, vals[i])
	}
	mustHash(t, tr)
	return tr, keys, vals
}

func TestVerifyRangeProofMiddleSlice(t *testing.T) {
	// Scenario 6: a contiguous middle slice, expect more_right = true.
	tr, keys, vals := buildRangeTrie(t)
	root := mustHash(t, tr)

	first := []byte(keys[1])
	rangeKeys := [][]byte{[]byte(keys[1]), []byte(keys[2]), []byte(keys[3])}
	rangeVals := [][]byte{[]byte(vals[1]), []byte(vals[2]), []byte(vals[3])}

	proof, err := tr.MultiProve([][]byte{[]byte(keys[1]), []byte(keys[3])})
	if err != nil {
		t.Fatalf("MultiProve: %v", err)
	}

	ok, moreRight, err := VerifyRangeProof(root, first, rangeKeys, rangeVals, proof)
	if err != nil {
		t.Fatalf("VerifyRangeProof: %v", err)
	}
	if !ok {
		t.Fatalf("expected range to verify")
	}
	if !moreRight {
		t.Fatalf("expected more_right = true for a middle slice")
	}
}

func TestVerifyRangeProofTrailingSlice(t *testing.T) {
	tr, keys, vals := buildRangeTrie(t)
	root := mustHash(t, tr)

	first := []byte(keys[3])
	rangeKeys := [][]byte{[]byte(keys[3]), []byte(keys[4])}
	rangeVals := [][]byte{[]byte(vals[3]), []byte(vals[4])}

	proof, err := tr.MultiProve([][]byte{[]byte(keys[3]), []byte(keys[4])})
	if err != nil {
		t.Fatalf("MultiProve: %v", err)
	}

	ok, moreRight, err := VerifyRangeProof(root, first, rangeKeys, rangeVals, proof)
	if err != nil {
		t.Fatalf("VerifyRangeProof: %v", err)
	}
	if !ok {
		t.Fatalf("expected range to verify")
	}
	if moreRight {
		t.Fatalf("expected more_right = false for the trailing slice")
	}
}

func TestVerifyRangeProofRejectsTamperedValue(t *testing.T) {
	tr, keys, vals := buildRangeTrie(t)
	root := mustHash(t, tr)

	first := []byte(keys[1])
	rangeKeys := [][]byte{[]byte(keys[1]), []byte(keys[2])}
	rangeVals := [][]byte{[]byte("tampered"), []byte(vals[2])}

	proof, err := tr.MultiProve([][]byte{[]byte(keys[1]), []byte(keys[2])})
	if err != nil {
		t.Fatalf("MultiProve: %v", err)
	}

	ok, _, err := VerifyRangeProof(root, first, rangeKeys, rangeVals, proof)
	if err != nil {
		t.Fatalf("VerifyRangeProof: %v", err)
	}
	if ok {
		t.Fatalf("expected a tampered value to fail verification")
	}
}

func TestVerifyRangeProofRejectsOutOfOrderKeys(t *testing.T) {
	tr, keys, vals := buildRangeTrie(t)
	root := mustHash(t, tr)

	first := []byte(keys[1])
	rangeKeys := [][]byte{[]byte(keys[2]), []byte(keys[1])}
	rangeVals := [][]byte{[]byte(vals[2]), []byte(vals[1])}

	proof, err := tr.MultiProve([][]byte{[]byte(keys[1]), []byte(keys[2])})
	if err != nil {
		t.Fatalf("MultiProve: %v", err)
	}

	ok, _, err := VerifyRangeProof(root, first, rangeKeys, rangeVals, proof)
	if err != nil {
		t.Fatalf("VerifyRangeProof: %v", err)
	}
	if ok {
		t.Fatalf("expected out-of-order keys to fail verification")
	}
}

func TestVerifyRangeProofEmptyRangeProvesAbsence(t *testing.T) {
	// An empty range starting past every stored key proves there is
	// nothing left in the keyspace from that point on.
	tr, _, _ := buildRangeTrie(t)
	root := mustHash(t, tr)

	missing := []byte("zzz")
	proof, err := tr.ProveAbsence(missing)
	if err != nil {
		t.Fatalf("ProveAbsence: %v", err)
	}

	ok, moreRight, err := VerifyRangeProof(root, missing, nil, nil, proof)
	if err != nil {
		t.Fatalf("VerifyRangeProof: %v", err)
	}
	if !ok {
		t.Fatalf("expected an empty trailing range with a valid absence proof to verify")
	}
	if moreRight {
		t.Fatalf("expected more_right = false past the last key")
	}
}
