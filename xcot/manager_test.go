//
// Copyright (c) 2026 The BEAVY Authors
//
// All rights reserved.
//

package xcot

import (
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/stretchr/testify/require"

	"github.com/gobeavy/beavy/bitvec"
	"github.com/gobeavy/beavy/p2p"
)

func connectedManagers(t *testing.T) (*Manager, *Manager) {
	t.Helper()
	conn0, conn1 := p2p.Pipe()

	m0 := NewManager(0)
	m1 := NewManager(1)

	var eg errgroup.Group
	eg.Go(func() error { return m0.AddPeer(1, conn0) })
	eg.Go(func() error { return m1.AddPeer(0, conn1) })
	require.NoError(t, eg.Wait())

	return m0, m1
}

func bits(s string) *bitvec.BitVector {
	bv := bitvec.New(len(s))
	for i, c := range s {
		if c == '1' {
			bv.SetBit(i, 1)
		}
	}
	return bv
}

// TestXCOTBitInvariant establishes one XCOT-bit exchange in each
// direction and checks sender.outputs ^ receiver.outputs == correlations
// & choices for both.
func TestXCOTBitInvariant(t *testing.T) {
	m0, m1 := connectedManagers(t)

	h0, err := m0.ForPeer(1)
	require.NoError(t, err)
	h1, err := m1.ForPeer(0)
	require.NoError(t, err)

	const n = 8
	correlations := bits("11001010")
	choices := bits("10101100")

	sender := h0.RegisterSendXCOTBit(1, n)
	receiver := h1.RegisterReceiveXCOTBit(1, n)

	var eg errgroup.Group
	eg.Go(func() error {
		if err := sender.SetCorrelations(correlations); err != nil {
			return err
		}
		if err := sender.SendMessages(); err != nil {
			return err
		}
		return sender.ComputeOutputs()
	})
	eg.Go(func() error {
		if err := receiver.SetChoices(choices); err != nil {
			return err
		}
		if err := receiver.SendCorrections(); err != nil {
			return err
		}
		return receiver.ComputeOutputs()
	})
	require.NoError(t, eg.Wait())

	senderOut, err := sender.GetOutputs()
	require.NoError(t, err)
	receiverOut, err := receiver.GetOutputs()
	require.NoError(t, err)

	expected, err := correlations.And(choices)
	require.NoError(t, err)

	got, err := senderOut.Xor(receiverOut)
	require.NoError(t, err)
	require.Equal(t, expected.String(), got.String())
}

func TestForPeerUnknownPeerFails(t *testing.T) {
	m := NewManager(0)
	_, err := m.ForPeer(5)
	require.Error(t, err)
}
