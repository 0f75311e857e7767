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

	"github.com/gobeavy/beavy/circuit"
	"github.com/gobeavy/beavy/wire"
)

// Executor translates a circuit.Graph into this party's live wire/gate
// objects and drives them through the setup sweep followed by the
// online sweep. Every gate's EvaluateSetup across the whole graph
// completes before any gate's EvaluateOnline begins, matching the
// two-phase contract wire.Wire enforces with its latches.
type Executor struct {
	p     *Provider
	graph *circuit.Graph

	wires   []*wire.Wire
	gates   []Gate
	inputs  map[int]*InputFuture
	outputs map[int]*OutputFuture
}

// NewExecutor builds the live gate graph for graph against p. It does
// not run anything; call Run to drive the setup/online sweeps.
func NewExecutor(p *Provider, graph *circuit.Graph) (*Executor, error) {
	e := &Executor{
		p:       p,
		graph:   graph,
		wires:   make([]*wire.Wire, graph.NumWires),
		gates:   make([]Gate, 0, len(graph.Gates)),
		inputs:  make(map[int]*InputFuture),
		outputs: make(map[int]*OutputFuture),
	}
	for _, desc := range graph.Gates {
		if err := e.build(desc); err != nil {
			return nil, fmt.Errorf("beavy: executor: gate %d (%s): %w", desc.ID, desc.Kind, err)
		}
	}
	return e, nil
}

func (e *Executor) build(desc *circuit.GateDesc) error {
	switch desc.Kind {
	case circuit.GateInput:
		if desc.InputOwner == e.p.MyID() {
			g := NewInputSenderGate(desc.ID, e.p, len(desc.Outputs), desc.NumSIMD)
			for i, w := range g.Outputs() {
				e.wires[desc.Outputs[i]] = w
			}
			e.inputs[desc.ID] = g.Input()
			e.gates = append(e.gates, g)
			break
		}
		g, err := NewInputReceiverGate(desc.ID, e.p, desc.InputOwner, len(desc.Outputs), desc.NumSIMD)
		if err != nil {
			return err
		}
		for i, w := range g.Outputs() {
			e.wires[desc.Outputs[i]] = w
		}
		e.gates = append(e.gates, g)

	case circuit.GateXOR:
		a, b := e.wires[desc.Inputs[0]], e.wires[desc.Inputs[1]]
		if err := checkNumSIMD(desc, a, b); err != nil {
			return err
		}
		g := NewXORGate(desc.ID, a, b)
		e.wires[desc.Outputs[0]] = g.Output()
		e.gates = append(e.gates, g)

	case circuit.GateINV:
		in := e.wires[desc.Inputs[0]]
		if err := checkNumSIMD(desc, in); err != nil {
			return err
		}
		g := NewINVGate(desc.ID, in, e.p.IsMyJob(desc.ID))
		e.wires[desc.Outputs[0]] = g.Output()
		e.gates = append(e.gates, g)

	case circuit.GateAND:
		peer, err := otherParty(e.p.NumParties(), e.p.MyID())
		if err != nil {
			return err
		}
		a, b := e.wires[desc.Inputs[0]], e.wires[desc.Inputs[1]]
		if err := checkNumSIMD(desc, a, b); err != nil {
			return err
		}
		g, err := NewANDGate(desc.ID, e.p, peer, a, b)
		if err != nil {
			return err
		}
		e.wires[desc.Outputs[0]] = g.Output()
		e.gates = append(e.gates, g)

	case circuit.GateOutput:
		ins := make([]*wire.Wire, len(desc.Inputs))
		for i, id := range desc.Inputs {
			ins[i] = e.wires[id]
		}
		if err := checkNumSIMD(desc, ins...); err != nil {
			return err
		}
		g, err := NewOutputGate(desc.ID, e.p, desc.Recipient, ins)
		if err != nil {
			return err
		}
		if result, err := g.Result(); err == nil {
			e.outputs[desc.ID] = result
		}
		e.gates = append(e.gates, g)

	default:
		return fmt.Errorf("beavy: executor: unknown gate kind %v", desc.Kind)
	}
	return nil
}

// checkNumSIMD verifies every fan-in wire of desc carries the SIMD
// width the graph declared for it. GateDesc.NumSIMD is otherwise unread
// by build for every kind but GateInput — this is the one place it
// still buys something: a Graph built outside Builder (or a Builder
// call site passing the wrong width) fails fast with a clear error
// instead of silently driving Xor/And across mismatched wires deep
// inside a gate's setup sweep.
func checkNumSIMD(desc *circuit.GateDesc, wires ...*wire.Wire) error {
	for i, w := range wires {
		if w.NumSIMD() != desc.NumSIMD {
			return fmt.Errorf("beavy: executor: gate %d (%s): input %d has NumSIMD %d, want %d",
				desc.ID, desc.Kind, i, w.NumSIMD(), desc.NumSIMD)
		}
	}
	return nil
}

// otherParty returns the sole counterpart of myID among exactly two
// parties. AND gates are restricted to two active parties; a circuit
// with more must partition AND usage accordingly before reaching here.
func otherParty(numParties, myID int) (int, error) {
	if numParties != 2 {
		return 0, fmt.Errorf("beavy: AND gate requires exactly two parties, got %d", numParties)
	}
	return 1 - myID, nil
}

// Input returns the InputFuture for the InputSender gate with the given
// id, so a driver can inject that party's cleartext bits before Run.
func (e *Executor) Input(gateID int) (*InputFuture, bool) {
	f, ok := e.inputs[gateID]
	return f, ok
}

// Output returns the OutputFuture for the Output gate with the given
// id, so a driver can await the reconstructed cleartext after Run.
func (e *Executor) Output(gateID int) (*OutputFuture, bool) {
	f, ok := e.outputs[gateID]
	return f, ok
}

// Run drives every gate's setup sweep to completion, then every gate's
// online sweep to completion. Both sweeps fan the whole gate list out
// through an errgroup so independent gates run concurrently; a gate
// blocked on wire.Wire.WaitSetup/WaitOnline simply parks its goroutine
// until the producing gate latches the wire.
func (e *Executor) Run(ctx context.Context) error {
	if err := e.sweep(ctx, func(g Gate) error { return g.EvaluateSetup(ctx) }); err != nil {
		return fmt.Errorf("beavy: executor: setup sweep: %w", err)
	}
	if err := e.sweep(ctx, func(g Gate) error { return g.EvaluateOnline(ctx) }); err != nil {
		return fmt.Errorf("beavy: executor: online sweep: %w", err)
	}
	return nil
}

func (e *Executor) sweep(ctx context.Context, step func(Gate) error) error {
	eg, _ := errgroup.WithContext(ctx)
	for _, g := range e.gates {
		g := g
		eg.Go(func() error { return step(g) })
	}
	return eg.Wait()
}
