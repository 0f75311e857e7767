//
// Copyright (c) 2026 The BEAVY Authors
//
// All rights reserved.
//

package beavy

import (
	"context"
	"fmt"

	"github.com/gobeavy/beavy/bitvec"
	"github.com/gobeavy/beavy/mux"
	"github.com/gobeavy/beavy/wire"
)

// InputSenderGate is the input owner's half of an Input gate: it derives
// a secret sharing of numWires fresh masks during setup, then reveals
// the masked cleartext during online once the caller supplies it through
// Input().
type InputSenderGate struct {
	id       int
	p        *Provider
	numWires int
	numSIMD  int
	inputID  int

	outs  []*wire.Wire
	masks []*bitvec.BitVector

	input *InputFuture
}

// NewInputSenderGate constructs the input-owning gate for numWires fresh
// wires of width numSIMD. Input() must be called with numWires*numSIMD
// bits before the online sweep runs.
func NewInputSenderGate(id int, p *Provider, numWires, numSIMD int) *InputSenderGate {
	outs := make([]*wire.Wire, numWires)
	for i := range outs {
		outs[i] = wire.New(numSIMD)
	}
	return &InputSenderGate{
		id:       id,
		p:        p,
		numWires: numWires,
		numSIMD:  numSIMD,
		inputID:  p.GetNextInputID(numWires),
		outs:     outs,
		input:    NewInputFuture(),
	}
}

// ID returns the gate's id.
func (g *InputSenderGate) ID() int { return g.id }

// Outputs returns the gate's freshly allocated output wires.
func (g *InputSenderGate) Outputs() []*wire.Wire { return g.outs }

// Input returns the future the caller injects this party's cleartext
// input bits (numWires*numSIMD of them) into.
func (g *InputSenderGate) Input() *InputFuture { return g.input }

// EvaluateSetup draws each output wire's secret share and accumulates
// the full mask by XORing in every peer's deterministic RNG contribution.
func (g *InputSenderGate) EvaluateSetup(ctx context.Context) error {
	g.masks = make([]*bitvec.BitVector, g.numWires)
	for i := 0; i < g.numWires; i++ {
		share, err := bitvec.Random(g.numSIMD)
		if err != nil {
			return fmt.Errorf("beavy: input sender gate %d: %w", g.id, err)
		}
		g.outs[i].SetSecretShare(share)

		mask := bitvec.New(0).Append(share)
		for peer := 0; peer < g.p.NumParties(); peer++ {
			if peer == g.p.MyID() {
				continue
			}
			contribution, err := g.p.MyRNGFor(peer).My.GetBits(g.inputID+i, g.numSIMD)
			if err != nil {
				return fmt.Errorf("beavy: input sender gate %d: %w", g.id, err)
			}
			if err := mask.XorInto(contribution); err != nil {
				return fmt.Errorf("beavy: input sender gate %d: %w", g.id, err)
			}
		}
		g.masks[i] = mask
	}
	return nil
}

// EvaluateOnline awaits the injected cleartext bits, reveals Δ_i = v_i ⊕
// δ_i on every output wire, and broadcasts the concatenation tagged by
// this gate's id.
func (g *InputSenderGate) EvaluateOnline(ctx context.Context) error {
	bits, err := g.input.Await(ctx)
	if err != nil {
		return err
	}
	if bits.Size() != g.numWires*g.numSIMD {
		return fmt.Errorf("%w: input sender gate %d: got %d bits, want %d",
			ErrBadInput, g.id, bits.Size(), g.numWires*g.numSIMD)
	}

	var broadcast *bitvec.BitVector
	for i := 0; i < g.numWires; i++ {
		chunk, err := bits.Subset(i*g.numSIMD, (i+1)*g.numSIMD)
		if err != nil {
			return err
		}
		public, err := chunk.Xor(g.masks[i])
		if err != nil {
			return err
		}
		g.outs[i].SetPublicShare(public)
		if broadcast == nil {
			broadcast = public
		} else {
			broadcast = broadcast.Append(public)
		}
	}

	if err := g.p.Net().Broadcast(ctx, g.id, broadcast); err != nil {
		return fmt.Errorf("%w: input sender gate %d: %w", ErrProtocolFailure, g.id, err)
	}
	return nil
}

// InputReceiverGate is a peer's half of an Input gate: it derives the
// matching secret shares from the same deterministic RNG stream the
// sender drew against, then learns the revealed masked values from the
// sender's broadcast.
type InputReceiverGate struct {
	id       int
	p        *Provider
	owner    int
	numWires int
	numSIMD  int
	inputID  int

	outs   []*wire.Wire
	future *mux.Future
}

// NewInputReceiverGate constructs the peer-side gate matching owner's
// InputSenderGate for the same gate id, numWires and numSIMD, registering
// the receive slot for the owner's broadcast immediately so it is open
// well before the online sweep.
func NewInputReceiverGate(id int, p *Provider, owner, numWires, numSIMD int) (*InputReceiverGate, error) {
	outs := make([]*wire.Wire, numWires)
	for i := range outs {
		outs[i] = wire.New(numSIMD)
	}
	future, err := p.Messages().RegisterForBitsMessage(owner, id, numWires*numSIMD)
	if err != nil {
		return nil, fmt.Errorf("beavy: input receiver gate %d: %w", id, err)
	}
	return &InputReceiverGate{
		id:       id,
		p:        p,
		owner:    owner,
		numWires: numWires,
		numSIMD:  numSIMD,
		inputID:  p.GetNextInputID(numWires),
		outs:     outs,
		future:   future,
	}, nil
}

// ID returns the gate's id.
func (g *InputReceiverGate) ID() int { return g.id }

// Outputs returns the gate's freshly allocated output wires.
func (g *InputReceiverGate) Outputs() []*wire.Wire { return g.outs }

// EvaluateSetup derives each output wire's secret share from the shared
// deterministic RNG stream with the input owner.
func (g *InputReceiverGate) EvaluateSetup(ctx context.Context) error {
	for i := 0; i < g.numWires; i++ {
		share, err := g.p.MyRNGFor(g.owner).Their.GetBits(g.inputID+i, g.numSIMD)
		if err != nil {
			return fmt.Errorf("beavy: input receiver gate %d: %w", g.id, err)
		}
		g.outs[i].SetSecretShare(share)
	}
	return nil
}

// EvaluateOnline awaits the owner's broadcast and splits it into each
// output wire's public share.
func (g *InputReceiverGate) EvaluateOnline(ctx context.Context) error {
	payload, err := g.future.Await(ctx)
	if err != nil {
		return fmt.Errorf("%w: input receiver gate %d: %w", ErrProtocolFailure, g.id, err)
	}
	for i := 0; i < g.numWires; i++ {
		chunk, err := payload.Subset(i*g.numSIMD, (i+1)*g.numSIMD)
		if err != nil {
			return err
		}
		g.outs[i].SetPublicShare(chunk)
	}
	return nil
}
