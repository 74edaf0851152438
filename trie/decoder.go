package trie

import (
	"fmt"
)

// decodeNode decodes an RLP-encoded trie node.
// The hash is the expected hash reference of this node (for caching).
func decodeNode(hash hashNode, data []byte) (node, error) {
	if len(data) == 0 {
		return nil, NewDecodingError(fmt.Errorf("empty node data"))
	}

	elems, err := decodeRLPList(data)
	if err != nil {
		return nil, NewDecodingError(err)
	}

	switch len(elems) {
	case 2:
		return decodeShort(hash, elems)
	case 17:
		return decodeFull(hash, elems)
	default:
		return nil, NewDecodingError(fmt.Errorf("expected 2 or 17 elements, got %d", len(elems)))
	}
}

// decodeShort decodes a 2-element RLP list into a shortNode (Leaf or
// Extension, distinguished by the terminator nibble in the decoded key).
func decodeShort(hash hashNode, elems [][]byte) (node, error) {
	key := compactToHex(elems[0])

	if hasTerm(key) {
		return &shortNode{
			Key: key,
			Val: valueNode(elems[1]),
			flags: nodeFlag{
				hash:  hash,
				dirty: false,
			},
		}, nil
	}

	if len(key) == 0 {
		return nil, ErrExtensionPrefixMismatch
	}

	child, err := decodeRef(elems[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingExtensionChild, err)
	}
	return &shortNode{
		Key: key,
		Val: child,
		flags: nodeFlag{
			hash:  hash,
			dirty: false,
		},
	}, nil
}

// decodeFull decodes a 17-element RLP list into a fullNode (Branch).
func decodeFull(hash hashNode, elems [][]byte) (node, error) {
	n := &fullNode{
		flags: nodeFlag{
			hash:  hash,
			dirty: false,
		},
	}
	for i := 0; i < 16; i++ {
		if len(elems[i]) == 0 {
			continue
		}
		child, err := decodeRef(elems[i])
		if err != nil {
			return nil, fmt.Errorf("%w: choice %d: %v", ErrMissingBranchChild, i, err)
		}
		n.Children[i] = child
	}
	if len(elems[16]) > 0 {
		n.Children[16] = valueNode(elems[16])
	}
	return n, nil
}

// decodeRef decodes a child node reference: a 32-byte hash, or (for
// children whose encoding is under the inline threshold) the inline node
// itself, decoded recursively.
func decodeRef(data []byte) (node, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if len(data) == 32 {
		return hashNode(data), nil
	}
	return decodeNode(nil, data)
}

// decodeLength decodes a big-endian length from the given bytes.
func decodeLength(data []byte, lenLen int) int {
	var length int
	for i := 0; i < lenLen; i++ {
		length = length<<8 | int(data[i])
	}
	return length
}

// decodeRLPList decodes a top-level RLP list into its element byte slices.
// This is a hand-rolled parser, not routed through the general rlp package:
// node decoding needs access to sub-element raw bytes (to re-encode inline
// children) that the reflective decoder does not expose.
func decodeRLPList(data []byte) ([][]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty data")
	}

	prefix := data[0]
	if prefix < 0xc0 {
		return nil, fmt.Errorf("expected list, got string prefix 0x%02x", prefix)
	}
	var payload []byte

	switch {
	case prefix <= 0xf7:
		length := int(prefix - 0xc0)
		if 1+length > len(data) {
			return nil, fmt.Errorf("truncated list")
		}
		payload = data[1 : 1+length]
	default:
		lenLen := int(prefix - 0xf7)
		if 1+lenLen > len(data) {
			return nil, fmt.Errorf("truncated list length")
		}
		length := decodeLength(data[1:1+lenLen], lenLen)
		if 1+lenLen+length > len(data) {
			return nil, fmt.Errorf("truncated list")
		}
		payload = data[1+lenLen : 1+lenLen+length]
	}

	var elems [][]byte
	for len(payload) > 0 {
		elem, rest, err := decodeOneElement(payload)
		if err != nil {
			return nil, err
		}
		elems = append(elems, elem)
		payload = rest
	}
	return elems, nil
}

// decodeOneElement reads one RLP element from the front of data,
// returning the decoded content and remaining data. For nested lists it
// returns the complete RLP (header included), since inline trie nodes
// must be re-decoded as nodes rather than flattened to raw bytes.
func decodeOneElement(data []byte) (content []byte, rest []byte, err error) {
	if len(data) == 0 {
		return nil, nil, fmt.Errorf("empty element")
	}

	prefix := data[0]
	switch {
	case prefix <= 0x7f:
		return data[:1], data[1:], nil

	case prefix == 0x80:
		return nil, data[1:], nil

	case prefix <= 0xb7:
		length := int(prefix - 0x80)
		if 1+length > len(data) {
			return nil, nil, fmt.Errorf("truncated string")
		}
		return data[1 : 1+length], data[1+length:], nil

	case prefix <= 0xbf:
		lenLen := int(prefix - 0xb7)
		if 1+lenLen > len(data) {
			return nil, nil, fmt.Errorf("truncated string length")
		}
		length := decodeLength(data[1:1+lenLen], lenLen)
		end := 1 + lenLen + length
		if end > len(data) {
			return nil, nil, fmt.Errorf("truncated string")
		}
		return data[1+lenLen : end], data[end:], nil

	case prefix <= 0xf7:
		length := int(prefix - 0xc0)
		end := 1 + length
		if end > len(data) {
			return nil, nil, fmt.Errorf("truncated list")
		}
		return data[:end], data[end:], nil

	default:
		lenLen := int(prefix - 0xf7)
		if 1+lenLen > len(data) {
			return nil, nil, fmt.Errorf("truncated list length")
		}
		length := decodeLength(data[1:1+lenLen], lenLen)
		end := 1 + lenLen + length
		if end > len(data) {
			return nil, nil, fmt.Errorf("truncated list")
		}
		return data[:end], data[end:], nil
	}
}
