//
// Copyright (c) 2026 The BEAVY Authors
//
// All rights reserved.
//

package wire

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gobeavy/beavy/bitvec"
)

func bits(s string) *bitvec.BitVector {
	bv := bitvec.New(len(s))
	for i, c := range s {
		if c == '1' {
			bv.SetBit(i, 1)
		}
	}
	return bv
}

func TestWaitSetupBlocksUntilSet(t *testing.T) {
	w := New(4)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.False(t, w.SetupReady())
	require.Error(t, w.WaitSetup(ctx))

	w2 := New(4)
	done := make(chan struct{})
	go func() {
		require.NoError(t, w2.WaitSetup(context.Background()))
		close(done)
	}()
	w2.SetSecretShare(bits("1010"))
	<-done
	require.True(t, w2.SetupReady())
	require.Equal(t, "1010", w2.SecretShare().String())
}

func TestWaitOnlineBlocksUntilSet(t *testing.T) {
	w := New(4)
	require.False(t, w.OnlineReady())

	done := make(chan struct{})
	go func() {
		require.NoError(t, w.WaitOnline(context.Background()))
		close(done)
	}()
	w.SetPublicShare(bits("0110"))
	<-done
	require.True(t, w.OnlineReady())
	require.Equal(t, "0110", w.PublicShare().String())
}

func TestSetSecretShareTwicePanics(t *testing.T) {
	w := New(2)
	w.SetSecretShare(bits("01"))
	require.Panics(t, func() { w.SetSecretShare(bits("10")) })
}

func TestSetSecretShareWrongSizePanics(t *testing.T) {
	w := New(4)
	require.Panics(t, func() { w.SetSecretShare(bits("01")) })
}

func TestSetPublicShareTwicePanics(t *testing.T) {
	w := New(2)
	w.SetPublicShare(bits("01"))
	require.Panics(t, func() { w.SetPublicShare(bits("10")) })
}
