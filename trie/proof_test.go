package trie

import (
	"bytes"
	"testing"

	"github.com/holiman/uint256"
	"github.com/lambdaclass/ethrex-trie/types"
)

func TestProveAndVerifyInclusion(t *testing.T) {
	tr := New()
	mustPut(t, tr, "doe", "reindeer")
	mustPut(t, tr, "dog", "puppy")
	mustPut(t, tr, "dogglesworth", "cat")
	root := mustHash(t, tr)

	proof, err := tr.Prove([]byte("dog"))
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	val, err := VerifyProof(root, []byte("dog"), proof)
	if err != nil {
		t.Fatalf("VerifyProof: %v", err)
	}
	if !bytes.Equal(val, []byte("puppy")) {
		t.Fatalf("verified value = %q, want puppy", val)
	}
}

func TestProveAbsence(t *testing.T) {
	// Scenario 3 + 5: branch choices[3] is empty.
	tr := New()
	mustPut(t, tr, string([]byte{0x01}), string([]byte{0xAA}))
	mustPut(t, tr, string([]byte{0x02}), string([]byte{0xBB}))
	root := mustHash(t, tr)

	proof, err := tr.ProveAbsence([]byte{0x03})
	if err != nil {
		t.Fatalf("ProveAbsence: %v", err)
	}
	val, err := VerifyProof(root, []byte{0x03}, proof)
	if err != nil {
		t.Fatalf("VerifyProof: %v", err)
	}
	if val != nil {
		t.Fatalf("verified value = %x, want nil (absence)", val)
	}
}

func TestVerifyProofRejectsTamperedNode(t *testing.T) {
	tr := New()
	mustPut(t, tr, "doe", "reindeer")
	mustPut(t, tr, "dog", "puppy")
	mustPut(t, tr, "dogglesworth", "cat")
	root := mustHash(t, tr)

	proof, err := tr.Prove([]byte("dog"))
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	tampered := make([][]byte, len(proof))
	for i, p := range proof {
		tampered[i] = append([]byte(nil), p...)
	}
	tampered[len(tampered)-1][0] ^= 0xff

	if _, err := VerifyProof(root, []byte("dog"), tampered); err == nil {
		t.Fatalf("expected tampered proof to fail verification")
	}
}

func TestMultiProveCoversEveryKey(t *testing.T) {
	tr := New()
	mustPut(t, tr, "doe", "reindeer")
	mustPut(t, tr, "dog", "puppy")
	mustPut(t, tr, "dogglesworth", "cat")
	root := mustHash(t, tr)

	proof, err := tr.MultiProve([][]byte{[]byte("doe"), []byte("dog"), []byte("cat")})
	if err != nil {
		t.Fatalf("MultiProve: %v", err)
	}

	if v, err := VerifyProof(root, []byte("doe"), proof); err != nil || !bytes.Equal(v, []byte("reindeer")) {
		t.Fatalf("verify doe: %q, %v", v, err)
	}
	if v, err := VerifyProof(root, []byte("dog"), proof); err != nil || !bytes.Equal(v, []byte("puppy")) {
		t.Fatalf("verify dog: %q, %v", v, err)
	}
	if v, err := VerifyProof(root, []byte("cat"), proof); err != nil || v != nil {
		t.Fatalf("verify cat (absent): %q, %v", v, err)
	}
}

func TestAccountRoundTrip(t *testing.T) {
	account := &types.Account{Nonce: 7, Balance: uint256.NewInt(1_000_000), StorageRoot: types.EmptyRootHash, CodeHash: types.EmptyCodeHash}
	enc, err := EncodeAccount(account)
	if err != nil {
		t.Fatalf("EncodeAccount: %v", err)
	}
	got, err := decodeAccount(enc)
	if err != nil {
		t.Fatalf("decodeAccount: %v", err)
	}
	if got.Nonce != account.Nonce || !got.Balance.Eq(account.Balance) || got.StorageRoot != account.StorageRoot || got.CodeHash != account.CodeHash {
		t.Fatalf("round-tripped account mismatch: %+v != %+v", got, account)
	}
}
