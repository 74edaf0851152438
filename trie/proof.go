package trie

import (
	"bytes"
	"errors"

	"github.com/holiman/uint256"

	"github.com/lambdaclass/ethrex-trie/crypto"
	"github.com/lambdaclass/ethrex-trie/rlp"
	"github.com/lambdaclass/ethrex-trie/types"
)

var errAccountShape = errors.New("expected a 4-element account list")

// Prove generates a single-path Merkle proof for key: the RLP encoding of
// every node visited from the root down to the value, in path order.
// Nodes small enough to be inlined are listed too: such a node appears
// embedded in its parent's encoding and again as its own element right
// after the parent, where VerifyProof expects it.
func (t *Trie) Prove(key []byte) ([][]byte, error) {
	if t.root == nil {
		return nil, ErrNotFound
	}
	if _, err := t.Hash(); err != nil {
		return nil, err
	}

	hexKey := keybytesToHex(key)
	var proof [][]byte
	found, err := t.prove(t.root, hexKey, 0, &proof)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	return proof, nil
}

func (t *Trie) prove(n node, key []byte, pos int, proof *[][]byte) (bool, error) {
	switch n := n.(type) {
	case nil:
		return false, nil

	case *shortNode:
		collapsed := n.copy()
		collapsed.Key = hexToCompact(n.Key)
		collapsed.Val = collapseForProof(n.Val)
		enc, err := encodeShortNode(collapsed)
		if err != nil {
			return false, NewDecodingError(err)
		}
		*proof = append(*proof, enc)

		if len(key)-pos < len(n.Key) || !keysEqual(n.Key, key[pos:pos+len(n.Key)]) {
			return false, nil
		}
		child := n.Val
		if hn, ok := child.(hashNode); ok {
			resolved, err := t.resolveExtensionChild(hn)
			if err != nil {
				return false, err
			}
			child = resolved
		}
		return t.prove(child, key, pos+len(n.Key), proof)

	case *fullNode:
		collapsed := collapseFullNodeForProof(n)
		enc, err := encodeFullNode(collapsed)
		if err != nil {
			return false, NewDecodingError(err)
		}
		*proof = append(*proof, enc)

		if pos >= len(key) {
			return n.Children[16] != nil, nil
		}
		child := n.Children[key[pos]]
		if hn, ok := child.(hashNode); ok {
			resolved, err := t.resolveBranchChild(hn)
			if err != nil {
				return false, err
			}
			child = resolved
		}
		return t.prove(child, key, pos+1, proof)

	case valueNode:
		return true, nil

	case hashNode:
		resolved, err := t.resolveHash(n)
		if err != nil {
			return false, err
		}
		return t.prove(resolved, key, pos, proof)

	default:
		return false, nil
	}
}

// ProveAbsence generates a proof of non-existence for key: the RLP
// encoding of every node visited along the path until it diverges from
// key. An empty trie needs no proof nodes at all.
func (t *Trie) ProveAbsence(key []byte) ([][]byte, error) {
	if t.root == nil {
		return nil, nil
	}
	if _, err := t.Hash(); err != nil {
		return nil, err
	}

	hexKey := keybytesToHex(key)
	var proof [][]byte
	err := t.proveAbsence(t.root, hexKey, 0, &proof)
	return proof, err
}

func (t *Trie) proveAbsence(n node, key []byte, pos int, proof *[][]byte) error {
	switch n := n.(type) {
	case nil:
		return nil

	case *shortNode:
		collapsed := n.copy()
		collapsed.Key = hexToCompact(n.Key)
		collapsed.Val = collapseForProof(n.Val)
		enc, err := encodeShortNode(collapsed)
		if err != nil {
			return NewDecodingError(err)
		}
		*proof = append(*proof, enc)

		if len(key)-pos < len(n.Key) || !keysEqual(n.Key, key[pos:pos+len(n.Key)]) {
			return nil // divergence here: proves absence
		}
		child := n.Val
		if hn, ok := child.(hashNode); ok {
			resolved, err := t.resolveExtensionChild(hn)
			if err != nil {
				return err
			}
			child = resolved
		}
		return t.proveAbsence(child, key, pos+len(n.Key), proof)

	case *fullNode:
		collapsed := collapseFullNodeForProof(n)
		enc, err := encodeFullNode(collapsed)
		if err != nil {
			return NewDecodingError(err)
		}
		*proof = append(*proof, enc)

		if pos >= len(key) {
			return nil
		}
		child := n.Children[key[pos]]
		if child == nil {
			return nil // empty slot: proves absence
		}
		if hn, ok := child.(hashNode); ok {
			resolved, err := t.resolveBranchChild(hn)
			if err != nil {
				return err
			}
			child = resolved
		}
		return t.proveAbsence(child, key, pos+1, proof)

	case valueNode:
		return nil

	case hashNode:
		resolved, err := t.resolveHash(n)
		if err != nil {
			return err
		}
		return t.proveAbsence(resolved, key, pos, proof)

	default:
		return nil
	}
}

// MultiProve generates a single deduplicated proof covering every key in
// keys: the union of each key's single-path proof, deduplicated by hash
// so a verifier can look nodes up once regardless of how many paths
// reference them.
func (t *Trie) MultiProve(keys [][]byte) ([][]byte, error) {
	seen := make(map[types.Hash]struct{})
	var merged [][]byte
	for _, key := range keys {
		var nodeProof [][]byte
		var err error
		nodeProof, err = t.Prove(key)
		if err == ErrNotFound {
			nodeProof, err = t.ProveAbsence(key)
		}
		if err != nil {
			return nil, err
		}
		for _, enc := range nodeProof {
			h := crypto.Keccak256Hash(enc)
			if _, ok := seen[h]; ok {
				continue
			}
			seen[h] = struct{}{}
			merged = append(merged, enc)
		}
	}
	return merged, nil
}

// collapseForProof replaces a node's children that are large enough to be
// hashed with their hash reference, exactly the encoding a parent would
// use for them on the wire.
func collapseForProof(n node) node {
	switch n := n.(type) {
	case *shortNode:
		collapsed := n.copy()
		collapsed.Key = hexToCompact(n.Key)
		collapsed.Val = collapseForProof(n.Val)
		enc, err := encodeShortNode(collapsed)
		if err != nil {
			return n
		}
		if len(enc) >= 32 {
			return hashNode(crypto.Keccak256(enc))
		}
		return collapsed
	case *fullNode:
		collapsed := collapseFullNodeForProof(n)
		enc, err := encodeFullNode(collapsed)
		if err != nil {
			return n
		}
		if len(enc) >= 32 {
			return hashNode(crypto.Keccak256(enc))
		}
		return collapsed
	default:
		return n
	}
}

func collapseFullNodeForProof(n *fullNode) *fullNode {
	collapsed := n.copy()
	for i := 0; i < 16; i++ {
		if n.Children[i] != nil {
			collapsed.Children[i] = collapseForProof(n.Children[i])
		}
	}
	return collapsed
}

// VerifyProof verifies a single-path Merkle proof for key against rootHash.
// It returns the bound value if the proof demonstrates inclusion, or
// (nil, nil) if it demonstrates the key's absence. Any other outcome is
// an ErrProofInvalid.
func VerifyProof(rootHash types.Hash, key []byte, proof [][]byte) ([]byte, error) {
	if len(proof) == 0 {
		if rootHash == types.EmptyRootHash {
			return nil, nil
		}
		return nil, NewProofInvalidError("empty proof against non-empty root")
	}

	hexKey := keybytesToHex(key)
	wantHash := rootHash[:]
	var wantInline []byte

	pos := 0
	for i, encoded := range proof {
		if wantInline != nil {
			if !bytes.Equal(encoded, wantInline) {
				return nil, NewProofInvalidError("inline child mismatch")
			}
			wantInline = nil
		} else {
			nodeHash := crypto.Keccak256(encoded)
			if !bytes.Equal(nodeHash, wantHash) {
				return nil, NewProofInvalidError("node hash mismatch")
			}
		}

		items, err := decodeRLPList(encoded)
		if err != nil {
			return nil, NewProofInvalidError("malformed proof node")
		}

		switch len(items) {
		case 2:
			compactKey := items[0]
			hexNibbles := compactToHex(compactKey)

			matchLen := prefixLen(hexNibbles, hexKey[pos:])
			if matchLen < len(hexNibbles) {
				if i == len(proof)-1 {
					return nil, nil // diverges on the last node: absence
				}
				return nil, NewProofInvalidError("path diverges before proof end")
			}
			pos += len(hexNibbles)

			if hasTerm(hexNibbles) {
				if i == len(proof)-1 {
					return items[1], nil
				}
				return nil, NewProofInvalidError("unexpected terminal leaf")
			}

			if i == len(proof)-1 {
				return nil, NewProofInvalidError("proof ends at an extension")
			}
			childRef := items[1]
			if len(childRef) == 32 {
				wantHash, wantInline = childRef, nil
			} else {
				wantHash, wantInline = nil, childRef
			}

		case 17:
			if pos >= len(hexKey) {
				return nil, NewProofInvalidError("path exhausted before branch")
			}
			nibble := hexKey[pos]
			pos++

			if nibble == terminatorByte {
				val := items[16]
				if len(val) == 0 {
					return nil, nil
				}
				return val, nil
			}

			childRef := items[nibble]
			if len(childRef) == 0 {
				if i == len(proof)-1 {
					return nil, nil // empty slot: absence
				}
				return nil, NewProofInvalidError("path diverges before proof end")
			}
			if i == len(proof)-1 {
				return nil, NewProofInvalidError("proof ends at a branch with a live child")
			}
			if len(childRef) == 32 {
				wantHash, wantInline = childRef, nil
			} else {
				wantHash, wantInline = nil, childRef
			}

		default:
			return nil, NewProofInvalidError("unexpected element count")
		}
	}

	return nil, NewProofInvalidError("proof exhausted without reaching a terminal")
}

// AccountProof mirrors the eth_getProof response shape: the account state
// alongside the trie nodes that prove it (or its absence).
type AccountProof struct {
	Address      types.Address
	AccountProof [][]byte
	Nonce        uint64
	Balance      *uint256.Int
	StorageHash  types.Hash
	CodeHash     types.Hash
	StorageProof []StorageProof
}

// StorageProof is the proof for a single storage slot within an account's
// storage trie.
type StorageProof struct {
	Key   types.Hash
	Value *uint256.Int
	Proof [][]byte
}

// ProveAccount proves the account at addr in the state trie stateTrie,
// keyed (as in Ethereum's secure trie) by Keccak256(address).
func ProveAccount(stateTrie *Trie, addr types.Address) (*AccountProof, error) {
	addrHash := crypto.Keccak256(addr[:])
	result := &AccountProof{Address: addr, Balance: new(uint256.Int)}

	proof, err := stateTrie.Prove(addrHash)
	if err == ErrNotFound {
		proof, err = stateTrie.ProveAbsence(addrHash)
		if err != nil {
			return nil, err
		}
		result.AccountProof = proof
		result.StorageHash = types.EmptyRootHash
		result.CodeHash = types.EmptyCodeHash
		return result, nil
	}
	if err != nil {
		return nil, err
	}
	result.AccountProof = proof

	accountRLP, err := stateTrie.Get(addrHash)
	if err != nil {
		return nil, err
	}
	account, err := decodeAccount(accountRLP)
	if err != nil {
		return nil, err
	}
	result.Nonce = account.Nonce
	result.Balance = account.Balance
	result.StorageHash = account.StorageRoot
	result.CodeHash = account.CodeHash
	return result, nil
}

// ProveAccountWithStorage proves addr in stateTrie and each of storageKeys
// in storageTrie (the account's own storage trie).
func ProveAccountWithStorage(stateTrie *Trie, addr types.Address, storageTrie *Trie, storageKeys []types.Hash) (*AccountProof, error) {
	result, err := ProveAccount(stateTrie, addr)
	if err != nil {
		return nil, err
	}

	if storageTrie == nil {
		for _, key := range storageKeys {
			result.StorageProof = append(result.StorageProof, StorageProof{Key: key, Value: new(uint256.Int)})
		}
		return result, nil
	}

	for _, key := range storageKeys {
		sp := StorageProof{Key: key, Value: new(uint256.Int)}
		slotHash := crypto.Keccak256(key[:])

		proof, err := storageTrie.Prove(slotHash)
		if err == ErrNotFound {
			proof, err = storageTrie.ProveAbsence(slotHash)
			if err != nil {
				return nil, err
			}
			sp.Proof = proof
		} else if err != nil {
			return nil, err
		} else {
			sp.Proof = proof
			if val, getErr := storageTrie.Get(slotHash); getErr == nil && len(val) > 0 {
				sp.Value.SetBytes(val)
			}
		}
		result.StorageProof = append(result.StorageProof, sp)
	}
	return result, nil
}

// decodeAccount decodes the 4-element RLP list [nonce, balance,
// storageRoot, codeHash] that forms an Ethereum account leaf value.
func decodeAccount(data []byte) (*types.Account, error) {
	items, err := decodeRLPList(data)
	if err != nil {
		return nil, NewDecodingError(err)
	}
	if len(items) != 4 {
		return nil, NewDecodingError(errAccountShape)
	}

	account := types.NewAccount()
	account.Nonce = decodeBytesAsUint64(items[0])
	if len(items[1]) > 0 {
		account.Balance.SetBytes(items[1])
	}
	if len(items[2]) == 32 {
		account.StorageRoot = types.BytesToHash(items[2])
	}
	if len(items[3]) == 32 {
		account.CodeHash = types.BytesToHash(items[3])
	}
	return account, nil
}

func decodeBytesAsUint64(b []byte) uint64 {
	var val uint64
	for _, byt := range b {
		val = val<<8 | uint64(byt)
	}
	return val
}

// EncodeAccount RLP-encodes account as the 4-element list used for trie
// leaf values.
func EncodeAccount(account *types.Account) ([]byte, error) {
	return rlp.EncodeToBytes(struct {
		Nonce       uint64
		Balance     *uint256.Int
		StorageRoot types.Hash
		CodeHash    types.Hash
	}{
		Nonce:       account.Nonce,
		Balance:     account.Balance,
		StorageRoot: account.StorageRoot,
		CodeHash:    account.CodeHash,
	})
}
