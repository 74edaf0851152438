package rlp

import "errors"

var (
	ErrExpectedString   = errors.New("rlp: expected string or byte")
	ErrExpectedList     = errors.New("rlp: expected list")
	ErrCanonSize        = errors.New("rlp: non-canonical size information")
	ErrEOL              = errors.New("rlp: end of list")
	ErrCanonInt         = errors.New("rlp: non-canonical integer format")
	ErrNonCanonicalSize = errors.New("rlp: non-canonical size")
	ErrUint64Range      = errors.New("rlp: value out of range for uint64")
	ErrValueTooLarge    = errors.New("rlp: value too large")
)
