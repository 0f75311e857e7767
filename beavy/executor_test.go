//
// Copyright (c) 2026 The BEAVY Authors
//
// All rights reserved.
//

package beavy

import (
	"context"
	"crypto/rand"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/stretchr/testify/require"

	"github.com/gobeavy/beavy/bitvec"
	"github.com/gobeavy/beavy/circuit"
	"github.com/gobeavy/beavy/mux"
	"github.com/gobeavy/beavy/ot"
	"github.com/gobeavy/beavy/p2p"
	"github.com/gobeavy/beavy/rng"
	"github.com/gobeavy/beavy/transport"
	"github.com/gobeavy/beavy/xcot"
)

type halfDuplexPipe struct {
	r io.Reader
	w io.Writer
}

func (p halfDuplexPipe) Read(data []byte) (int, error)  { return p.r.Read(data) }
func (p halfDuplexPipe) Write(data []byte) (int, error) { return p.w.Write(data) }

func rawPipe() (io.ReadWriter, io.ReadWriter) {
	ar, aw := io.Pipe()
	br, bw := io.Pipe()
	return halfDuplexPipe{r: ar, w: bw}, halfDuplexPipe{r: br, w: aw}
}

func newTestParty(t *testing.T, myID int, seed [32]byte, dataRW io.ReadWriter, otConn ot.IO) *Provider {
	t.Helper()
	peerID := 1 - myID

	messages := mux.New()
	router := transport.NewRouter(myID, messages)
	router.AddPeer(transport.NewConn(peerID, dataRW))

	otMgr := xcot.NewManager(myID)
	require.NoError(t, otMgr.AddPeer(peerID, otConn))

	rngPeers := map[int]*rng.Pair{
		peerID: rng.NewPair(seed, uint32(myID), uint32(peerID)),
	}

	logger := zerolog.Nop()
	return NewProvider(Config{
		MyID:       myID,
		NumParties: 2,
		RNGPeers:   rngPeers,
		Net:        router,
		OT:         otMgr,
		Log:        &logger,
	})
}

// runTwoPartyCircuit builds both parties' executors for graph, injects
// a and b at their respective owners, runs both to completion, and
// returns the reconstructed output bits as seen by each party.
func runTwoPartyCircuit(t *testing.T, graph *circuit.Graph, inA, inB, outID int, a, b *bitvec.BitVector) (got0, got1 *bitvec.BitVector) {
	t.Helper()

	dataRW0, dataRW1 := rawPipe()
	otConn0, otConn1 := p2p.Pipe()

	var seed [32]byte
	_, err := rand.Read(seed[:])
	require.NoError(t, err)

	p0 := newTestParty(t, 0, seed, dataRW0, otConn0)
	p1 := newTestParty(t, 1, seed, dataRW1, otConn1)

	exec0, err := NewExecutor(p0, graph)
	require.NoError(t, err)
	exec1, err := NewExecutor(p1, graph)
	require.NoError(t, err)

	if f, ok := exec0.Input(inA); ok {
		f.Set(a)
	}
	if f, ok := exec1.Input(inB); ok {
		f.Set(b)
	}

	ctx := context.Background()
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error { return exec0.Run(egCtx) })
	eg.Go(func() error { return exec1.Run(egCtx) })
	require.NoError(t, eg.Wait())

	r0, ok := exec0.Output(outID)
	require.True(t, ok)
	got0, err = r0.Await(ctx)
	require.NoError(t, err)

	r1, ok := exec1.Output(outID)
	require.True(t, ok)
	got1, err = r1.Await(ctx)
	require.NoError(t, err)

	return got0, got1
}

func bitsFromByte(t *testing.T, v byte) *bitvec.BitVector {
	t.Helper()
	bv, err := bitvec.FromBytes([]byte{v}, 8)
	require.NoError(t, err)
	return bv
}

// TestExecutorXORINVANDOutput builds (a AND b) XOR (NOT a) over 8-bit
// values and checks every party reconstructs the same cleartext result,
// matching local cleartext evaluation, across several input pairs.
func TestExecutorXORINVANDOutput(t *testing.T) {
	cases := []struct{ a, b byte }{
		{0x00, 0x00},
		{0xff, 0xff},
		{0xa5, 0x3c},
		{0x0f, 0xf0},
	}

	for _, tc := range cases {
		b := circuit.NewBuilder()
		inA, aWires := b.Input(0, 1, 8)
		inB, bWires := b.Input(1, 1, 8)
		_, notAWire := b.INV(aWires[0], 8)
		_, andWire := b.AND(aWires[0], bWires[0], 8)
		_, xorWire := b.XOR(andWire, notAWire, 8)
		outID := b.Output(circuit.RecipientAll, 8, xorWire)
		graph := b.Graph()

		got0, got1 := runTwoPartyCircuit(t, graph, inA, inB, outID,
			bitsFromByte(t, tc.a), bitsFromByte(t, tc.b))

		want := (tc.a & tc.b) ^ ^tc.a
		require.Equal(t, want, got0.Bytes()[0])
		require.Equal(t, want, got1.Bytes()[0])
	}
}

// TestExecutorOutputToSingleRecipient checks that a non-recipient party
// never gets a usable Output future while the recipient still gets the
// correct cleartext.
func TestExecutorOutputToSingleRecipient(t *testing.T) {
	b := circuit.NewBuilder()
	inA, aWires := b.Input(0, 1, 8)
	inB, bWires := b.Input(1, 1, 8)
	_, xorWire := b.XOR(aWires[0], bWires[0], 8)
	outID := b.Output(0, 8, xorWire)
	graph := b.Graph()

	dataRW0, dataRW1 := rawPipe()
	otConn0, otConn1 := p2p.Pipe()
	var seed [32]byte
	_, err := rand.Read(seed[:])
	require.NoError(t, err)

	p0 := newTestParty(t, 0, seed, dataRW0, otConn0)
	p1 := newTestParty(t, 1, seed, dataRW1, otConn1)

	exec0, err := NewExecutor(p0, graph)
	require.NoError(t, err)
	exec1, err := NewExecutor(p1, graph)
	require.NoError(t, err)

	a, bv := byte(0x5a), byte(0x0f)
	if f, ok := exec0.Input(inA); ok {
		f.Set(bitsFromByte(t, a))
	}
	if f, ok := exec1.Input(inB); ok {
		f.Set(bitsFromByte(t, bv))
	}

	ctx := context.Background()
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error { return exec0.Run(egCtx) })
	eg.Go(func() error { return exec1.Run(egCtx) })
	require.NoError(t, eg.Wait())

	r0, ok := exec0.Output(outID)
	require.True(t, ok)
	got0, err := r0.Await(ctx)
	require.NoError(t, err)
	require.Equal(t, a^bv, got0.Bytes()[0])

	_, ok = exec1.Output(outID)
	require.False(t, ok)
}

// TestExecutorRejectsMismatchedNumSIMD checks that a gate whose
// declared SIMD width disagrees with its fan-in wire's actual width
// fails at graph-build time instead of silently mixing widths deep
// inside a gate's setup sweep.
func TestExecutorRejectsMismatchedNumSIMD(t *testing.T) {
	b := circuit.NewBuilder()
	_, aWires := b.Input(0, 1, 8)
	_, bWires := b.Input(1, 1, 8)
	b.XOR(aWires[0], bWires[0], 4)
	graph := b.Graph()

	logger := zerolog.Nop()
	p := NewProvider(Config{MyID: 0, NumParties: 2, Log: &logger})
	_, err := NewExecutor(p, graph)
	require.Error(t, err)
}

// TestExecutorRejectsMoreThanTwoPartiesForAND checks the AND gate's
// two-party-only restriction is enforced at graph-build time.
func TestExecutorRejectsMoreThanTwoPartiesForAND(t *testing.T) {
	b := circuit.NewBuilder()
	_, aWires := b.Input(0, 1, 1)
	_, bWires := b.Input(1, 1, 1)
	b.AND(aWires[0], bWires[0], 1)
	graph := b.Graph()

	logger := zerolog.Nop()
	p := NewProvider(Config{MyID: 0, NumParties: 3, Log: &logger})
	_, err := NewExecutor(p, graph)
	require.Error(t, err)
}
