//
// Copyright (c) 2026 The BEAVY Authors
//
// All rights reserved.
//

// Package wire implements the two-phase readiness cell gates exchange
// shares through: a fixed-width pair of BitVectors (SecretShare,
// PublicShare) guarded by monotone setup/online latches.
package wire

import (
	"context"
	"fmt"
	"sync"

	"github.com/gobeavy/beavy/bitvec"
)

// Wire holds one party's XOR-secret-sharing of a single circuit wire
// across NumSIMD parallel instances: SecretShare is this party's share
// of the mask δ, PublicShare is the reconstructed Δ = v ⊕ δ. Both
// fields are write-once-then-read-only, guarded by a latch that is set
// exactly when the field becomes safe to read.
type Wire struct {
	numSIMD int

	mu          sync.RWMutex
	secretShare *bitvec.BitVector
	publicShare *bitvec.BitVector

	setupOnce sync.Once
	setupCh   chan struct{}

	onlineOnce sync.Once
	onlineCh   chan struct{}
}

// New creates a wire of the given SIMD width with neither latch set.
func New(numSIMD int) *Wire {
	return &Wire{
		numSIMD:  numSIMD,
		setupCh:  make(chan struct{}),
		onlineCh: make(chan struct{}),
	}
}

// NumSIMD returns the number of parallel instances every value on this
// wire carries.
func (w *Wire) NumSIMD() int {
	return w.numSIMD
}

// SetSecretShare records this wire's setup-phase output and latches
// the setup latch. It is a programming error to call this more than once;
// the second call is a no-op because the latch has already fired, which
// would silently hide a bug, so it panics instead.
func (w *Wire) SetSecretShare(bits *bitvec.BitVector) {
	if bits.Size() != w.numSIMD {
		panic(fmt.Sprintf("wire: secret share size %d, want %d", bits.Size(), w.numSIMD))
	}
	fired := false
	w.setupOnce.Do(func() {
		fired = true
		w.mu.Lock()
		w.secretShare = bits
		w.mu.Unlock()
		close(w.setupCh)
	})
	if !fired {
		panic("wire: SetSecretShare called twice")
	}
}

// SetPublicShare records this wire's online-phase output and latches
// the online latch. Same double-call policy as SetSecretShare.
func (w *Wire) SetPublicShare(bits *bitvec.BitVector) {
	if bits.Size() != w.numSIMD {
		panic(fmt.Sprintf("wire: public share size %d, want %d", bits.Size(), w.numSIMD))
	}
	fired := false
	w.onlineOnce.Do(func() {
		fired = true
		w.mu.Lock()
		w.publicShare = bits
		w.mu.Unlock()
		close(w.onlineCh)
	})
	if !fired {
		panic("wire: SetPublicShare called twice")
	}
}

// WaitSetup blocks until the setup latch is latched, or ctx is done.
func (w *Wire) WaitSetup(ctx context.Context) error {
	select {
	case <-w.setupCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WaitOnline blocks until the online latch is latched, or ctx is done.
func (w *Wire) WaitOnline(ctx context.Context) error {
	select {
	case <-w.onlineCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SecretShare returns the wire's secret share. Callers must have already
// observed the setup latch (e.g. via WaitSetup); reading before that is a
// caller bug; the returned value would be nil.
func (w *Wire) SecretShare() *bitvec.BitVector {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.secretShare
}

// PublicShare returns the wire's public share. Callers must have already
// observed the online latch (e.g. via WaitOnline).
func (w *Wire) PublicShare() *bitvec.BitVector {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.publicShare
}

// SetupReady reports whether the setup latch is latched, without blocking.
func (w *Wire) SetupReady() bool {
	select {
	case <-w.setupCh:
		return true
	default:
		return false
	}
}

// OnlineReady reports whether the online latch is latched, without blocking.
func (w *Wire) OnlineReady() bool {
	select {
	case <-w.onlineCh:
		return true
	default:
		return false
	}
}
