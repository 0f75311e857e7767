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
	"github.com/gobeavy/beavy/circuit"
	"github.com/gobeavy/beavy/mux"
	"github.com/gobeavy/beavy/wire"
)

// OutputGate reconstructs the cleartext value of its input wires for the
// designated recipient (or every party, when recipient is
// circuit.RecipientAll). The gate consumes its input wires by move: no
// other gate may read them once passed here.
type OutputGate struct {
	id        int
	p         *Provider
	recipient int
	ins       []*wire.Wire
	numBits   int

	fanIn  []*mux.Future
	result *OutputFuture
}

// NewOutputGate constructs the output gate consuming ins (moved) for
// recipient, or circuit.RecipientAll to deliver to every party.
func NewOutputGate(id int, p *Provider, recipient int, ins []*wire.Wire) (*OutputGate, error) {
	numBits := 0
	for _, w := range ins {
		numBits += w.NumSIMD()
	}
	g := &OutputGate{
		id:        id,
		p:         p,
		recipient: recipient,
		ins:       ins,
		numBits:   numBits,
		result:    NewOutputFuture(),
	}
	if recipient == circuit.RecipientAll || recipient == p.MyID() {
		fanIn, err := p.Messages().RegisterForBitsMessages(id, numBits, p.NumParties())
		if err != nil {
			return nil, fmt.Errorf("beavy: output gate %d: %w", id, err)
		}
		g.fanIn = fanIn
	}
	return g, nil
}

// ID returns the gate's id.
func (g *OutputGate) ID() int { return g.id }

// Result returns the future the reconstructed cleartext is published to.
// Calling it on a party that is not the recipient returns
// ErrNotMyOutput; the check happens synchronously, not by blocking.
func (g *OutputGate) Result() (*OutputFuture, error) {
	if g.recipient != circuit.RecipientAll && g.recipient != g.p.MyID() {
		return nil, ErrNotMyOutput
	}
	return g.result, nil
}

// EvaluateSetup does nothing; the Output gate has no setup-phase work.
func (g *OutputGate) EvaluateSetup(ctx context.Context) error {
	return nil
}

// EvaluateOnline concatenates this party's secret shares of every input
// wire, exchanges them with the recipient(s), and — if this party is a
// recipient — reconstructs and publishes the cleartext.
func (g *OutputGate) EvaluateOnline(ctx context.Context) error {
	for _, w := range g.ins {
		if err := w.WaitOnline(ctx); err != nil {
			return err
		}
	}

	mine := bitvec.New(0)
	for _, w := range g.ins {
		mine = mine.Append(w.SecretShare())
	}

	isRecipient := g.recipient == circuit.RecipientAll || g.recipient == g.p.MyID()
	if !isRecipient {
		if err := g.p.Net().Send(ctx, g.recipient, g.id, mine); err != nil {
			return fmt.Errorf("%w: output gate %d: %w", ErrProtocolFailure, g.id, err)
		}
		return nil
	}
	if g.recipient == circuit.RecipientAll {
		if err := g.p.Net().Broadcast(ctx, g.id, mine); err != nil {
			return fmt.Errorf("%w: output gate %d: %w", ErrProtocolFailure, g.id, err)
		}
	}

	aggregate := mine
	for peer, f := range g.fanIn {
		if peer == g.p.MyID() {
			continue
		}
		contribution, err := f.Await(ctx)
		if err != nil {
			return fmt.Errorf("%w: output gate %d: %w", ErrProtocolFailure, g.id, err)
		}
		if err := aggregate.XorInto(contribution); err != nil {
			return err
		}
	}

	cleartext := bitvec.New(0)
	offset := 0
	for _, w := range g.ins {
		n := w.NumSIMD()
		shareChunk, err := aggregate.Subset(offset, offset+n)
		if err != nil {
			return err
		}
		v, err := shareChunk.Xor(w.PublicShare())
		if err != nil {
			return err
		}
		cleartext = cleartext.Append(v)
		offset += n
	}

	g.result.set(cleartext)
	return nil
}
