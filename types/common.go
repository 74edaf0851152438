// Package types holds the small set of value types shared by the trie
// engine: fixed-size hashes and addresses, and the account RLP shape that
// sits at the leaves of the state trie.
package types

import (
	"encoding/hex"

	"github.com/holiman/uint256"
)

// HashLength is the byte length of a Keccak-256 digest.
const HashLength = 32

// AddressLength is the byte length of an Ethereum address.
const AddressLength = 20

// Hash is a 32-byte Keccak-256 digest, used for node hashes and roots.
type Hash [HashLength]byte

// BytesToHash sets h to the trailing HashLength bytes of b (left-truncating
// or left-padding as needed).
func BytesToHash(b []byte) Hash {
	var h Hash
	h.SetBytes(b)
	return h
}

// HexToHash parses a "0x"-prefixed or bare hex string into a Hash.
func HexToHash(s string) Hash {
	return BytesToHash(fromHex(s))
}

// SetBytes copies the trailing len(h) bytes of b into h.
func (h *Hash) SetBytes(b []byte) {
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
}

// Bytes returns a copy of the hash as a byte slice.
func (h Hash) Bytes() []byte { return h[:] }

// IsZero reports whether h is the all-zero hash.
func (h Hash) IsZero() bool { return h == Hash{} }

// Hex returns the "0x"-prefixed lowercase hex encoding of h.
func (h Hash) Hex() string { return "0x" + hex.EncodeToString(h[:]) }

// String implements fmt.Stringer.
func (h Hash) String() string { return h.Hex() }

// Address is a 20-byte account address.
type Address [AddressLength]byte

// BytesToAddress sets a to the trailing AddressLength bytes of b.
func BytesToAddress(b []byte) Address {
	var a Address
	a.SetBytes(b)
	return a
}

// HexToAddress parses a "0x"-prefixed or bare hex string into an Address.
func HexToAddress(s string) Address {
	return BytesToAddress(fromHex(s))
}

// SetBytes copies the trailing len(a) bytes of b into a.
func (a *Address) SetBytes(b []byte) {
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
}

// Bytes returns a copy of the address as a byte slice.
func (a Address) Bytes() []byte { return a[:] }

// Hex returns the "0x"-prefixed lowercase hex encoding of a.
func (a Address) Hex() string { return "0x" + hex.EncodeToString(a[:]) }

// String implements fmt.Stringer.
func (a Address) String() string { return a.Hex() }

// EmptyRootHash is the root hash of a trie with no entries: the Keccak-256
// hash of the RLP encoding of an empty byte string (the single byte 0x80).
var EmptyRootHash = HexToHash("56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421")

// EmptyCodeHash is the Keccak-256 hash of an empty byte string, used as the
// CodeHash of accounts with no associated bytecode.
var EmptyCodeHash = HexToHash("c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470")

// Account is the RLP shape stored at the leaves of the state trie: the
// value half of the (address-hash, account) mapping. StorageRoot is itself
// the root of a per-account storage trie, so accounts are the classic
// example of tries nested inside trie values.
type Account struct {
	Nonce       uint64
	Balance     *uint256.Int
	StorageRoot Hash
	CodeHash    Hash
}

// NewAccount returns an empty account with the canonical empty storage root
// and empty code hash.
func NewAccount() *Account {
	return &Account{
		Balance:     new(uint256.Int),
		StorageRoot: EmptyRootHash,
		CodeHash:    EmptyCodeHash,
	}
}

// IsEmpty reports whether the account is the "does not exist" account per
// EIP-161: zero nonce, zero balance, empty code.
func (a *Account) IsEmpty() bool {
	return a.Nonce == 0 && (a.Balance == nil || a.Balance.IsZero()) && a.CodeHash == EmptyCodeHash
}

func fromHex(s string) []byte {
	if len(s) >= 2 && (s[0:2] == "0x" || s[0:2] == "0X") {
		s = s[2:]
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil
	}
	return b
}
