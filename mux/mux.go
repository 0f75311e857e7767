//
// Copyright (c) 2026 The BEAVY Authors
//
// All rights reserved.
//

// Package mux implements the (sender_id, gate_id)-keyed message
// demultiplexer that lets a gate register a future expectation of a
// bit-vector message from a peer and have it fulfilled out of order,
// exactly once.
package mux

import (
	"context"
	"fmt"
	"sync"

	"github.com/gobeavy/beavy/bitvec"
)

// key identifies one registration slot.
type key struct {
	sender int
	gateID int
}

// slot is a single-use future: exactly one of payload/err is eventually
// set, and done is closed exactly once to unblock all waiters.
type slot struct {
	numBits int
	done    chan struct{}
	payload *bitvec.BitVector
	err     error
	once    sync.Once
}

func newSlot(numBits int) *slot {
	return &slot{numBits: numBits, done: make(chan struct{})}
}

// Future is a handle to a message that has been registered but may not
// have arrived yet.
type Future struct {
	s *slot
}

// Await blocks until the message arrives, the mux is poisoned, or ctx is
// done, whichever happens first.
func (f *Future) Await(ctx context.Context) (*bitvec.BitVector, error) {
	select {
	case <-f.s.done:
		return f.s.payload, f.s.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Mux is the mapping from (sender_id, gate_id) to one-shot BitVector
// futures, plus per-gate broadcast fan-in slots (one per peer).
type Mux struct {
	mu        sync.Mutex
	slots     map[key]*slot
	poisonErr error
}

// New creates an empty Mux.
func New() *Mux {
	return &Mux{slots: make(map[key]*slot)}
}

// RegisterForBitsMessage allocates a single-use slot expecting numBits
// bits from sender tagged by gateID.
func (m *Mux) RegisterForBitsMessage(sender, gateID, numBits int) (*Future, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.poisonErr != nil {
		return nil, m.poisonErr
	}
	k := key{sender, gateID}
	if _, exists := m.slots[k]; exists {
		return nil, fmt.Errorf("mux: registration already exists for sender=%d gate=%d", sender, gateID)
	}
	s := newSlot(numBits)
	m.slots[k] = s
	return &Future{s: s}, nil
}

// RegisterForBitsMessages allocates one slot per peer in [0, numParties)
// for a broadcast fan-in tagged by gateID. The caller's own index is
// still allocated a slot (for uniformity of indexing) but it is never
// completed, since transport.Router delivers only frames read from peers.
func (m *Mux) RegisterForBitsMessages(gateID, numBits, numParties int) ([]*Future, error) {
	futures := make([]*Future, numParties)
	for p := 0; p < numParties; p++ {
		f, err := m.RegisterForBitsMessage(p, gateID, numBits)
		if err != nil {
			return nil, err
		}
		futures[p] = f
	}
	return futures, nil
}

// Deliver completes the registration matching (sender, gateID) with
// payload. It is fatal protocol divergence if no such registration
// exists, or if it was already completed.
func (m *Mux) Deliver(sender, gateID int, payload *bitvec.BitVector) error {
	m.mu.Lock()
	s, ok := m.slots[key{sender, gateID}]
	poisoned := m.poisonErr
	m.mu.Unlock()
	if poisoned != nil {
		return poisoned
	}
	if !ok {
		return fmt.Errorf("mux: %w: sender=%d gate=%d", ErrUnregisteredMessage, sender, gateID)
	}
	select {
	case <-s.done:
		return fmt.Errorf("mux: %w: sender=%d gate=%d", ErrDuplicateMessage, sender, gateID)
	default:
	}
	if payload.Size() != s.numBits {
		return fmt.Errorf("mux: size mismatch delivering sender=%d gate=%d: got %d bits, want %d",
			sender, gateID, payload.Size(), s.numBits)
	}
	s.once.Do(func() {
		s.payload = payload
		close(s.done)
	})
	return nil
}

// Poison aborts every outstanding and future registration with err.
// transport.Router calls it when a peer connection fails, which makes the
// rest of the computation unrecoverable.
func (m *Mux) Poison(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.poisonErr != nil {
		return
	}
	m.poisonErr = err
	for _, s := range m.slots {
		s.once.Do(func() {
			s.err = err
			close(s.done)
		})
	}
}
