//
// Copyright (c) 2026 The BEAVY Authors
//
// All rights reserved.

package main

import (
	"github.com/gobeavy/beavy/circuit"
)

// demoCircuit builds (a AND b) XOR (NOT a) over 8-bit values, a owned
// by party 0 and b owned by party 1, delivering the result to every
// party. It exercises every gate kind the engine implements.
func demoCircuit() (*circuit.Graph, int, int, int) {
	b := circuit.NewBuilder()

	inA, aWires := b.Input(0, 1, 8)
	inB, bWires := b.Input(1, 1, 8)

	_, notAWire := b.INV(aWires[0], 8)
	_, andWire := b.AND(aWires[0], bWires[0], 8)
	_, xorWire := b.XOR(andWire, notAWire, 8)

	out := b.Output(circuit.RecipientAll, 8, xorWire)

	return b.Graph(), inA, inB, out
}
