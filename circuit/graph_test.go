//
// Copyright (c) 2026 The BEAVY Authors
//
// All rights reserved.
//

package circuit

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuilderAllocatesDistinctWireAndGateIDs(t *testing.T) {
	b := NewBuilder()

	inA, aWires := b.Input(0, 1, 8)
	inB, bWires := b.Input(1, 1, 8)
	require.NotEqual(t, inA, inB)
	require.Len(t, aWires, 1)
	require.Len(t, bWires, 1)
	require.NotEqual(t, aWires[0], bWires[0])

	_, notAWire := b.INV(aWires[0], 8)
	andID, andWire := b.AND(aWires[0], bWires[0], 8)
	xorID, xorWire := b.XOR(andWire, notAWire, 8)
	outID := b.Output(RecipientAll, 8, xorWire)

	graph := b.Graph()
	require.Equal(t, 5, graph.NumWires)
	require.Len(t, graph.Gates, 6)

	ids := make(map[int]bool)
	for _, g := range graph.Gates {
		require.False(t, ids[g.ID], "duplicate gate id %d", g.ID)
		ids[g.ID] = true
	}

	and := graph.Gates[andID]
	require.Equal(t, GateAND, and.Kind)
	require.Equal(t, []int{aWires[0], bWires[0]}, and.Inputs)

	xor := graph.Gates[xorID]
	require.Equal(t, GateXOR, xor.Kind)

	out := graph.Gates[outID]
	require.Equal(t, GateOutput, out.Kind)
	require.Equal(t, RecipientAll, out.Recipient)
}

func TestInputGateSharesOneIDBetweenOwnerAndReceivers(t *testing.T) {
	b := NewBuilder()
	gateID, outs := b.Input(1, 2, 4)

	graph := b.Graph()
	desc := graph.Gates[gateID]
	require.Equal(t, GateInput, desc.Kind)
	require.Equal(t, 1, desc.InputOwner)
	require.Equal(t, outs, desc.Outputs)
	require.Equal(t, 4, desc.NumSIMD)
}

func TestGateKindString(t *testing.T) {
	require.Equal(t, "Input", GateInput.String())
	require.Equal(t, "Output", GateOutput.String())
	require.Equal(t, "XOR", GateXOR.String())
	require.Equal(t, "INV", GateINV.String())
	require.Equal(t, "AND", GateAND.String())
	require.Equal(t, "Unknown", GateKind(99).String())
}
