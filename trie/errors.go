package trie

import (
	"errors"
	"fmt"

	"github.com/lambdaclass/ethrex-trie/types"
)

// ErrNotFound reports an absent entry: a Backend returns it for a hash it
// does not hold, and Prove returns it for a key that is absent from the
// trie. It is not a fatal error. Trie.Get does not return it: an absent
// key yields (nil, nil).
var ErrNotFound = errors.New("trie: key not found")

// ErrDecodingFailure wraps malformed RLP encountered while decoding a
// stored node or a proof element.
var ErrDecodingFailure = errors.New("trie: decoding failure")

// NewDecodingError wraps cause as an ErrDecodingFailure.
func NewDecodingError(cause error) error {
	return fmt.Errorf("%w: %v", ErrDecodingFailure, cause)
}

// ErrProofInvalid is the sentinel under which all proof-verification
// failures are wrapped, carrying a reason string describing the specific
// failure (hash mismatch, missing link, path disagreement, unexpected
// terminal).
var ErrProofInvalid = errors.New("trie: invalid proof")

// NewProofInvalidError wraps reason as an ErrProofInvalid.
func NewProofInvalidError(reason string) error {
	return fmt.Errorf("%w: %s", ErrProofInvalid, reason)
}

// ErrInconsistentTree is the umbrella sentinel for structural invariant
// violations discovered during traversal. The concrete sub-kind is
// distinguished by the wrapped value (MissingExtensionChild,
// MissingBranchChild, RootNotFound, ExtensionPrefixMismatch,
// EmptyRootWithNoHash).
var ErrInconsistentTree = errors.New("trie: inconsistent tree")

// ErrMissingExtensionChild: an Extension node's child reference is either
// malformed in its stored RLP encoding (decoder.go) or cannot be resolved
// from the backend once decoded (trie.go's resolveExtensionChild).
var ErrMissingExtensionChild = fmt.Errorf("%w: missing extension child", ErrInconsistentTree)

// ErrMissingBranchChild: a Branch node's child reference is either
// malformed in its stored RLP encoding (decoder.go) or cannot be resolved
// from the backend once decoded (trie.go's resolveBranchChild).
var ErrMissingBranchChild = fmt.Errorf("%w: missing branch child", ErrInconsistentTree)

// ErrExtensionPrefixMismatch: a decoded Extension node carries an empty
// prefix. A valid encoder never produces this (insert only wraps a branch
// in an Extension when the shared prefix is non-empty), so an Extension
// with no nibbles of its own means the traversal logic's assumption that
// an Extension always advances the path has been violated by the stored
// encoding.
var ErrExtensionPrefixMismatch = fmt.Errorf("%w: extension prefix mismatch", ErrInconsistentTree)

// ErrEmptyRootWithNoHash: the caller supplied the all-zero hash to OpenTrie.
// The zero hash is ambiguous with an uninitialized root and is not the
// canonical empty-trie root (which is Keccak256(RLP(""))), so it is
// rejected rather than silently treated as either.
var ErrEmptyRootWithNoHash = fmt.Errorf("%w: empty root with no hash", ErrInconsistentTree)

// NewRootNotFoundError reports that the backend has no node for hash,
// the RootNotFound(hash) sub-kind of ErrInconsistentTree.
func NewRootNotFoundError(hash types.Hash) error {
	return fmt.Errorf("%w: root not found: %s", ErrInconsistentTree, hash.Hex())
}

// ErrMissingNode reports a hashNode reference the backend cannot resolve
// during any traversal (read, mutation, proof or iteration); per the
// stateless-trie open question this is always surfaced explicitly rather
// than silently treated as an exclusion. An unresolvable direct child of
// an Extension or Branch is reported as ErrMissingExtensionChild or
// ErrMissingBranchChild instead.
var ErrMissingNode = errors.New("trie: missing node")

// NewMissingNodeError wraps hash as an ErrMissingNode.
func NewMissingNodeError(hash types.Hash) error {
	return fmt.Errorf("%w: %s", ErrMissingNode, hash.Hex())
}

// ErrBackend wraps a failure surfaced by the storage backend.
var ErrBackend = errors.New("trie: backend error")

// NewBackendError wraps cause as an ErrBackend.
func NewBackendError(cause error) error {
	if cause == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrBackend, cause)
}

// ErrInvalidInput reports ill-formed input to a trie operation. Keys are
// raw bytes, so no caller-supplied key is rejected with it; insert and
// delete return it when they meet a node of an unknown type.
var ErrInvalidInput = errors.New("trie: invalid input")

// NewInvalidInputError wraps reason as an ErrInvalidInput.
func NewInvalidInputError(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, reason)
}
