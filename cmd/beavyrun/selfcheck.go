//
// Copyright (c) 2026 The BEAVY Authors
//
// All rights reserved.

package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gobeavy/beavy/beavy"
	"github.com/gobeavy/beavy/bitvec"
	"github.com/gobeavy/beavy/mux"
	"github.com/gobeavy/beavy/ot"
	"github.com/gobeavy/beavy/p2p"
	"github.com/gobeavy/beavy/rng"
	"github.com/gobeavy/beavy/transport"
	"github.com/gobeavy/beavy/xcot"
)

func newSelfcheckCmd() *cobra.Command {
	var a, bVal uint8
	var verbose bool

	cmd := &cobra.Command{
		Use:   "selfcheck",
		Short: "Run the demo circuit over two in-process parties and verify the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelfcheck(a, bVal, verbose)
		},
	}
	cmd.Flags().Uint8Var(&a, "a", 0xa5, "party 0's input byte")
	cmd.Flags().Uint8Var(&bVal, "b", 0x3c, "party 1's input byte")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log protocol detail")
	return cmd
}

func runSelfcheck(a, b uint8, verbose bool) error {
	graph, inA, inB, outID := demoCircuit()

	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level)

	dataRW0, dataRW1 := rawPipe()
	otConn0, otConn1 := p2p.Pipe()

	var seed [32]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return fmt.Errorf("beavyrun: %w", err)
	}

	p0, err := newParty(0, 2, seed, dataRW0, otConn0, &logger)
	if err != nil {
		return fmt.Errorf("beavyrun: party 0: %w", err)
	}
	p1, err := newParty(1, 2, seed, dataRW1, otConn1, &logger)
	if err != nil {
		return fmt.Errorf("beavyrun: party 1: %w", err)
	}

	exec0, err := beavy.NewExecutor(p0, graph)
	if err != nil {
		return fmt.Errorf("beavyrun: party 0: %w", err)
	}
	exec1, err := beavy.NewExecutor(p1, graph)
	if err != nil {
		return fmt.Errorf("beavyrun: party 1: %w", err)
	}

	if f, ok := exec0.Input(inA); ok {
		bits, err := bitvec.FromBytes([]byte{a}, 8)
		if err != nil {
			return err
		}
		f.Set(bits)
	}
	if f, ok := exec1.Input(inB); ok {
		bits, err := bitvec.FromBytes([]byte{b}, 8)
		if err != nil {
			return err
		}
		f.Set(bits)
	}

	ctx := context.Background()
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error { return exec0.Run(egCtx) })
	eg.Go(func() error { return exec1.Run(egCtx) })
	if err := eg.Wait(); err != nil {
		return fmt.Errorf("beavyrun: %w", err)
	}

	result0, ok := exec0.Output(outID)
	if !ok {
		return fmt.Errorf("beavyrun: no output future for gate %d", outID)
	}
	out0, err := result0.Await(ctx)
	if err != nil {
		return fmt.Errorf("beavyrun: party 0: %w", err)
	}
	result1, ok := exec1.Output(outID)
	if !ok {
		return fmt.Errorf("beavyrun: no output future for gate %d", outID)
	}
	out1, err := result1.Await(ctx)
	if err != nil {
		return fmt.Errorf("beavyrun: party 1: %w", err)
	}

	want := (a & b) ^ (^a)
	got0 := out0.Bytes()[0]
	got1 := out1.Bytes()[0]

	fmt.Printf("a=%#02x b=%#02x (a&b)^~a=%#02x\n", a, b, want)
	fmt.Printf("party 0 output: %#02x\n", got0)
	fmt.Printf("party 1 output: %#02x\n", got1)

	if got0 != want || got1 != want {
		return fmt.Errorf("beavyrun: mismatch: want %#02x, got party0=%#02x party1=%#02x",
			want, got0, got1)
	}
	fmt.Println("selfcheck OK")
	return nil
}

// newParty wires up a Provider for a two-party in-process run: dataRW
// carries gate messages, otConn carries the base-OT/IKNP-extension
// bootstrap and every gate's correlated-OT traffic.
func newParty(myID, numParties int, seed [32]byte, dataRW io.ReadWriter, otConn ot.IO, logger *zerolog.Logger) (*beavy.Provider, error) {
	peerID := 1 - myID

	messages := mux.New()
	router := transport.NewRouter(myID, messages)
	router.AddPeer(transport.NewConn(peerID, dataRW))

	otMgr := xcot.NewManager(myID)
	if err := otMgr.AddPeer(peerID, otConn); err != nil {
		return nil, err
	}

	rngPeers := map[int]*rng.Pair{
		peerID: rng.NewPair(seed, uint32(myID), uint32(peerID)),
	}

	return beavy.NewProvider(beavy.Config{
		MyID:       myID,
		NumParties: numParties,
		RNGPeers:   rngPeers,
		Net:        router,
		OT:         otMgr,
		Log:        logger,
	}), nil
}
