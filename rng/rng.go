//
// Copyright (c) 2026 The BEAVY Authors
//
// All rights reserved.
//

// Package rng implements the per-peer correlated randomness streams that
// BEAVY input gates use to derive secret shares without any message
// exchange during setup.
package rng

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/chacha20"

	"github.com/gobeavy/beavy/bitvec"
)

// blockBits is the number of keystream bits produced per ChaCha20 block.
// Seeking to an arbitrary bit offset means seeking the cipher to the
// containing block and discarding the bits before it within the block.
const blockBits = 512

// Stream is a seekable, deterministic bit stream keyed by a 32-byte seed.
// Two parties holding the same seed (one as "my", one as "their") derive
// identical bits for identical (offset, length) arguments. Seeking is
// O(1) via chacha20.Cipher.SetCounter, so concurrent callers touching
// disjoint offset ranges never serialize on a shared cursor.
type Stream struct {
	key   [32]byte
	nonce [12]byte
}

// NewStream creates a stream keyed by seed, with a nonce distinguishing
// the ordered (from, to) peer pair this stream belongs to so that the two
// directions of a pairwise handshake never collide.
func NewStream(seed [32]byte, from, to uint32) *Stream {
	var nonce [12]byte
	binary.LittleEndian.PutUint32(nonce[0:4], from)
	binary.LittleEndian.PutUint32(nonce[4:8], to)
	return &Stream{key: seed, nonce: nonce}
}

// GetBits returns bits [offset, offset+length) of the stream.
func (s *Stream) GetBits(offset, length int) (*bitvec.BitVector, error) {
	if offset < 0 || length < 0 {
		return nil, fmt.Errorf("rng: negative offset/length")
	}
	block := offset / blockBits
	skip := offset % blockBits

	c, err := chacha20.NewUnauthenticatedCipher(s.key[:], s.nonce[:])
	if err != nil {
		return nil, err
	}
	c.SetCounter(uint32(block))

	needed := (skip + length + 7) / 8
	buf := make([]byte, needed)
	c.XORKeyStream(buf, buf)

	out := bitvec.New(length)
	for i := 0; i < length; i++ {
		bitIdx := skip + i
		bit := (buf[bitIdx/8] >> uint(bitIdx%8)) & 1
		out.SetBit(i, uint(bit))
	}
	return out, nil
}

// Pair holds the two directed streams a party keeps for one peer: the
// stream it drives ("my") and the stream the peer drives ("their"). Both
// sides of a handshake construct the same two streams with from/to
// swapped, so "my" on one side equals "their" on the other.
type Pair struct {
	My    *Stream
	Their *Stream
}

// NewPair creates the stream pair for the ordered relationship between
// selfID and peerID, seeded by the shared secret from the randomness
// handshake (consumed, out of scope for this package).
func NewPair(seed [32]byte, selfID, peerID uint32) *Pair {
	return &Pair{
		My:    NewStream(seed, selfID, peerID),
		Their: NewStream(seed, peerID, selfID),
	}
}
