//
// Copyright (c) 2026 The BEAVY Authors
//
// All rights reserved.
//

package beavy

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/gobeavy/beavy/bitvec"
	"github.com/gobeavy/beavy/mux"
	"github.com/gobeavy/beavy/wire"
	"github.com/gobeavy/beavy/xcot"
)

// ANDGate computes a two-party Beaver-triple-like sharing of a ∧ b via
// one correlated-OT exchange in each direction with peer. Non-goal: more
// than two active parties through this gate; the Executor builds AND
// gates only when the computation has exactly two parties.
type ANDGate struct {
	id   int
	p    *Provider
	peer int
	a, b *wire.Wire
	out  *wire.Wire

	sender   *xcot.Sender
	receiver *xcot.Receiver
	fanIn    *mux.Future

	deltaAShare *bitvec.BitVector
	deltaBShare *bitvec.BitVector
	deltaYShare *bitvec.BitVector
}

// NewANDGate constructs an AND gate over a and b (equal width), running
// the Beaver-triple OT exchange against peer.
func NewANDGate(id int, p *Provider, peer int, a, b *wire.Wire) (*ANDGate, error) {
	numBits := a.NumSIMD()
	handles, err := p.OT().ForPeer(peer)
	if err != nil {
		return nil, fmt.Errorf("beavy: AND gate %d: %w", id, err)
	}
	future, err := p.Messages().RegisterForBitsMessage(peer, id, numBits)
	if err != nil {
		return nil, fmt.Errorf("beavy: AND gate %d: %w", id, err)
	}
	return &ANDGate{
		id:       id,
		p:        p,
		peer:     peer,
		a:        a,
		b:        b,
		out:      wire.New(numBits),
		sender:   handles.RegisterSendXCOTBit(id, numBits),
		receiver: handles.RegisterReceiveXCOTBit(id, numBits),
		fanIn:    future,
	}, nil
}

// ID returns the gate's id.
func (g *ANDGate) ID() int { return g.id }

// Output returns the gate's output wire.
func (g *ANDGate) Output() *wire.Wire { return g.out }

// EvaluateSetup draws the output's fresh mask, runs the two-directional
// correlated-OT exchange against peer, and folds the resulting share of
// δ_a·δ_b into the running Δ_y accumulator.
func (g *ANDGate) EvaluateSetup(ctx context.Context) error {
	outShare, err := bitvec.Random(g.out.NumSIMD())
	if err != nil {
		return fmt.Errorf("beavy: AND gate %d: %w", g.id, err)
	}
	g.out.SetSecretShare(outShare)

	if err := g.a.WaitSetup(ctx); err != nil {
		return err
	}
	if err := g.b.WaitSetup(ctx); err != nil {
		return err
	}
	g.deltaAShare = g.a.SecretShare()
	g.deltaBShare = g.b.SecretShare()

	local, err := g.deltaAShare.And(g.deltaBShare)
	if err != nil {
		return err
	}

	eg, _ := errgroup.WithContext(ctx)
	var senderOut, receiverOut *bitvec.BitVector
	eg.Go(func() error {
		if err := g.sender.SetCorrelations(g.deltaBShare); err != nil {
			return err
		}
		if err := g.sender.SendMessages(); err != nil {
			return err
		}
		if err := g.sender.ComputeOutputs(); err != nil {
			return err
		}
		out, err := g.sender.GetOutputs()
		senderOut = out
		return err
	})
	eg.Go(func() error {
		if err := g.receiver.SetChoices(g.deltaAShare); err != nil {
			return err
		}
		if err := g.receiver.SendCorrections(); err != nil {
			return err
		}
		if err := g.receiver.ComputeOutputs(); err != nil {
			return err
		}
		out, err := g.receiver.GetOutputs()
		receiverOut = out
		return err
	})
	if err := eg.Wait(); err != nil {
		return fmt.Errorf("%w: AND gate %d: %w", ErrProtocolFailure, g.id, err)
	}

	deltaABShare := local
	if err := deltaABShare.XorInto(senderOut); err != nil {
		return err
	}
	if err := deltaABShare.XorInto(receiverOut); err != nil {
		return err
	}

	deltaYShare := bitvec.New(0).Append(outShare)
	if err := deltaYShare.XorInto(deltaABShare); err != nil {
		return err
	}
	g.deltaYShare = deltaYShare
	return nil
}

// EvaluateOnline folds in the revealed Δ_a, Δ_b cross terms, adds the
// job owner's Δ_aΔ_b term exactly once, exchanges the running share with
// peer, and publishes the reconstructed Δ_y.
func (g *ANDGate) EvaluateOnline(ctx context.Context) error {
	if err := g.a.WaitOnline(ctx); err != nil {
		return err
	}
	if err := g.b.WaitOnline(ctx); err != nil {
		return err
	}
	deltaA := g.a.PublicShare()
	deltaB := g.b.PublicShare()

	crossA, err := deltaA.And(g.deltaBShare)
	if err != nil {
		return err
	}
	crossB, err := deltaB.And(g.deltaAShare)
	if err != nil {
		return err
	}
	if err := g.deltaYShare.XorInto(crossA); err != nil {
		return err
	}
	if err := g.deltaYShare.XorInto(crossB); err != nil {
		return err
	}

	if g.p.IsMyJob(g.id) {
		product, err := deltaA.And(deltaB)
		if err != nil {
			return err
		}
		if err := g.deltaYShare.XorInto(product); err != nil {
			return err
		}
	}

	if err := g.p.Net().Send(ctx, g.peer, g.id, g.deltaYShare); err != nil {
		return fmt.Errorf("%w: AND gate %d: %w", ErrProtocolFailure, g.id, err)
	}
	peerShare, err := g.fanIn.Await(ctx)
	if err != nil {
		return fmt.Errorf("%w: AND gate %d: %w", ErrProtocolFailure, g.id, err)
	}
	reconstructed, err := g.deltaYShare.Xor(peerShare)
	if err != nil {
		return err
	}
	g.out.SetPublicShare(reconstructed)
	return nil
}
