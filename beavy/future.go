//
// Copyright (c) 2026 The BEAVY Authors
//
// All rights reserved.
//

package beavy

import (
	"context"
	"sync"

	"github.com/gobeavy/beavy/bitvec"
)

// InputFuture is the one-shot slot an Input sender gate awaits for the
// cleartext bits the circuit builder (or a CLI driver) injects at
// runtime.
type InputFuture struct {
	once sync.Once
	ch   chan *bitvec.BitVector
}

// NewInputFuture creates an unset InputFuture.
func NewInputFuture() *InputFuture {
	return &InputFuture{ch: make(chan *bitvec.BitVector, 1)}
}

// Set injects the cleartext input bits. Calling it more than once is a
// caller bug and is a no-op after the first call.
func (f *InputFuture) Set(bits *bitvec.BitVector) {
	f.once.Do(func() { f.ch <- bits })
}

// Await blocks until the input bits are injected or ctx is done.
func (f *InputFuture) Await(ctx context.Context) (*bitvec.BitVector, error) {
	select {
	case bits := <-f.ch:
		return bits, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// OutputFuture is the one-shot slot an Output gate publishes its
// reconstructed cleartext bits to.
type OutputFuture struct {
	once sync.Once
	ch   chan *bitvec.BitVector
}

// NewOutputFuture creates an unset OutputFuture.
func NewOutputFuture() *OutputFuture {
	return &OutputFuture{ch: make(chan *bitvec.BitVector, 1)}
}

func (f *OutputFuture) set(bits *bitvec.BitVector) {
	f.once.Do(func() { f.ch <- bits })
}

// Await blocks until the output gate publishes its result or ctx is
// done.
func (f *OutputFuture) Await(ctx context.Context) (*bitvec.BitVector, error) {
	select {
	case bits := <-f.ch:
		return bits, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
