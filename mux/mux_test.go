//
// Copyright (c) 2026 The BEAVY Authors
//
// All rights reserved.
//

package mux

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gobeavy/beavy/bitvec"
)

var errProtocolFailure = errors.New("protocol failure")

func bits(s string) *bitvec.BitVector {
	bv := bitvec.New(len(s))
	for i, c := range s {
		if c == '1' {
			bv.SetBit(i, 1)
		}
	}
	return bv
}

func TestRegisterDeliverAwait(t *testing.T) {
	m := New()
	f, err := m.RegisterForBitsMessage(2, 5, 4)
	require.NoError(t, err)

	require.NoError(t, m.Deliver(2, 5, bits("1010")))

	got, err := f.Await(context.Background())
	require.NoError(t, err)
	require.Equal(t, "1010", got.String())
}

func TestUnregisteredMessageIsFatal(t *testing.T) {
	m := New()
	err := m.Deliver(1, 1, bits("1"))
	require.ErrorIs(t, err, ErrUnregisteredMessage)
}

func TestDuplicateMessageIsFatal(t *testing.T) {
	m := New()
	_, err := m.RegisterForBitsMessage(1, 1, 1)
	require.NoError(t, err)
	require.NoError(t, m.Deliver(1, 1, bits("1")))
	err = m.Deliver(1, 1, bits("0"))
	require.ErrorIs(t, err, ErrDuplicateMessage)
}

func TestBroadcastFanInOwnSlotNeverCompleted(t *testing.T) {
	m := New()
	futures, err := m.RegisterForBitsMessages(9, 3, 3)
	require.NoError(t, err)

	require.NoError(t, m.Deliver(0, 9, bits("101")))
	require.NoError(t, m.Deliver(2, 9, bits("010")))

	got0, err := futures[0].Await(context.Background())
	require.NoError(t, err)
	require.Equal(t, "101", got0.String())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = futures[1].Await(ctx)
	require.Error(t, err)
}

func TestPoisonAbortsOutstandingFutures(t *testing.T) {
	m := New()
	f, err := m.RegisterForBitsMessage(0, 0, 1)
	require.NoError(t, err)

	m.Poison(errProtocolFailure)

	_, err = f.Await(context.Background())
	require.ErrorIs(t, err, errProtocolFailure)

	_, err = m.RegisterForBitsMessage(1, 1, 1)
	require.ErrorIs(t, err, errProtocolFailure)
}
