// Package crypto provides the cryptographic primitives the trie engine
// consumes: Keccak-256 hashing of RLP-encoded node and account data.
package crypto

import (
	"golang.org/x/crypto/sha3"

	"github.com/lambdaclass/ethrex-trie/types"
)

// Keccak256 returns the Keccak-256 digest of the concatenation of data.
func Keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, b := range data {
		h.Write(b)
	}
	return h.Sum(nil)
}

// Keccak256Hash returns the Keccak-256 digest of the concatenation of data
// as a types.Hash.
func Keccak256Hash(data ...[]byte) types.Hash {
	var h types.Hash
	h.SetBytes(Keccak256(data...))
	return h
}
