//
// Copyright (c) 2026 The BEAVY Authors
//
// All rights reserved.
//

package beavy

import (
	"context"

	"github.com/gobeavy/beavy/wire"
)

// Gate is the two-phase protocol step every BEAVY gate implements. A
// gate's EvaluateOnline must never be called before EvaluateSetup has
// returned; the Executor enforces this by running all gates' setup sweep
// to completion before starting the online sweep.
type Gate interface {
	ID() int
	EvaluateSetup(ctx context.Context) error
	EvaluateOnline(ctx context.Context) error
}

// XORGate computes out.secret = a.secret ^ b.secret at setup and
// out.public = a.public ^ b.public at online. It never communicates.
type XORGate struct {
	id   int
	a, b *wire.Wire
	out  *wire.Wire
}

// NewXORGate constructs an XOR gate over a and b, both NumSIMD wide.
func NewXORGate(id int, a, b *wire.Wire) *XORGate {
	return &XORGate{id: id, a: a, b: b, out: wire.New(a.NumSIMD())}
}

// ID returns the gate's id.
func (g *XORGate) ID() int { return g.id }

// Output returns the gate's output wire.
func (g *XORGate) Output() *wire.Wire { return g.out }

// EvaluateSetup waits on both inputs' setup and XORs their secret shares.
func (g *XORGate) EvaluateSetup(ctx context.Context) error {
	if err := g.a.WaitSetup(ctx); err != nil {
		return err
	}
	if err := g.b.WaitSetup(ctx); err != nil {
		return err
	}
	s, err := g.a.SecretShare().Xor(g.b.SecretShare())
	if err != nil {
		return err
	}
	g.out.SetSecretShare(s)
	return nil
}

// EvaluateOnline waits on both inputs' online and XORs their public
// shares.
func (g *XORGate) EvaluateOnline(ctx context.Context) error {
	if err := g.a.WaitOnline(ctx); err != nil {
		return err
	}
	if err := g.b.WaitOnline(ctx); err != nil {
		return err
	}
	p, err := g.a.PublicShare().Xor(g.b.PublicShare())
	if err != nil {
		return err
	}
	g.out.SetPublicShare(p)
	return nil
}

// INVGate flips one party's mask share, which is job-owner asymmetric:
// only the owning party runs the real gate; every other party forwards
// its input wire unchanged as the output wire, since that preserves the
// combined mask's XOR once the owner's share is flipped.
type INVGate struct {
	id      int
	isOwner bool
	in      *wire.Wire
	out     *wire.Wire
}

// NewINVGate constructs a NOT gate over in. isOwner must be
// provider.IsMyJob(id), computed identically by every party.
func NewINVGate(id int, in *wire.Wire, isOwner bool) *INVGate {
	g := &INVGate{id: id, isOwner: isOwner, in: in}
	if isOwner {
		g.out = wire.New(in.NumSIMD())
	} else {
		g.out = in
	}
	return g
}

// ID returns the gate's id.
func (g *INVGate) ID() int { return g.id }

// Output returns the gate's output wire — a freshly allocated wire for
// the job owner, the forwarded input wire for everyone else.
func (g *INVGate) Output() *wire.Wire { return g.out }

// EvaluateSetup flips the job owner's secret share; non-owners do
// nothing, since Output() already aliases the input wire.
func (g *INVGate) EvaluateSetup(ctx context.Context) error {
	if !g.isOwner {
		return nil
	}
	if err := g.in.WaitSetup(ctx); err != nil {
		return err
	}
	g.out.SetSecretShare(g.in.SecretShare().Not())
	return nil
}

// EvaluateOnline copies the public share unchanged for the job owner;
// non-owners do nothing.
func (g *INVGate) EvaluateOnline(ctx context.Context) error {
	if !g.isOwner {
		return nil
	}
	if err := g.in.WaitOnline(ctx); err != nil {
		return err
	}
	g.out.SetPublicShare(g.in.PublicShare())
	return nil
}
