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
	"net"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gobeavy/beavy/beavy"
	"github.com/gobeavy/beavy/bitvec"
	"github.com/gobeavy/beavy/mux"
	"github.com/gobeavy/beavy/p2p"
	"github.com/gobeavy/beavy/rng"
	"github.com/gobeavy/beavy/transport"
	"github.com/gobeavy/beavy/xcot"
)

func newRunCmd() *cobra.Command {
	var configPath, listenData, listenOT, peerData, peerOT string
	var input uint8

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the demo circuit as one party of a real two-party TCP computation",
		Long: "Run the demo circuit as one party of a real two-party TCP computation.\n" +
			"Party 0 listens on --listen-data/--listen-ot; party 1 dials out to\n" +
			"--peer-data/--peer-ot. AND gates are restricted to two active parties,\n" +
			"so run only supports a two-party config.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTCP(configPath, listenData, listenOT, peerData, peerOT, input)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to a PartyConfig JSON file")
	cmd.Flags().StringVar(&listenData, "listen-data", "", "gate-traffic listen address (party 0)")
	cmd.Flags().StringVar(&listenOT, "listen-ot", "", "OT-traffic listen address (party 0)")
	cmd.Flags().StringVar(&peerData, "peer-data", "", "party 0's gate-traffic address (party 1)")
	cmd.Flags().StringVar(&peerOT, "peer-ot", "", "party 0's OT-traffic address (party 1)")
	cmd.Flags().Uint8Var(&input, "input", 0, "this party's input byte")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func runTCP(configPath, listenData, listenOT, peerData, peerOT string, input uint8) error {
	f, err := os.Open(configPath)
	if err != nil {
		return fmt.Errorf("beavyrun: %w", err)
	}
	defer f.Close()

	cfg, err := beavy.LoadPartyConfig(f)
	if err != nil {
		return err
	}
	if cfg.NumParties != 2 {
		return fmt.Errorf("beavyrun: run supports exactly two parties, config has %d", cfg.NumParties)
	}
	peerID := 1 - cfg.ID

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Int("party", cfg.ID).Logger()

	dataConn, otConn, err := dialOrAccept(cfg.ID, listenData, listenOT, peerData, peerOT)
	if err != nil {
		return fmt.Errorf("beavyrun: %w", err)
	}
	defer dataConn.Close()
	defer otConn.Close()

	seed, err := exchangeSeed(cfg.ID, dataConn)
	if err != nil {
		return fmt.Errorf("beavyrun: seed exchange: %w", err)
	}

	messages := mux.New()
	router := transport.NewRouter(cfg.ID, messages)
	router.AddPeer(transport.NewConn(peerID, dataConn))

	otMgr := xcot.NewManager(cfg.ID)
	if err := otMgr.AddPeer(peerID, p2p.NewConn(otConn)); err != nil {
		return fmt.Errorf("beavyrun: %w", err)
	}

	rngPeers := map[int]*rng.Pair{
		peerID: rng.NewPair(seed, uint32(cfg.ID), uint32(peerID)),
	}

	provider := beavy.NewProvider(beavy.Config{
		MyID:       cfg.ID,
		NumParties: cfg.NumParties,
		RNGPeers:   rngPeers,
		Net:        router,
		OT:         otMgr,
		Log:        &logger,
	})

	graph, inA, inB, outID := demoCircuit()
	exec, err := beavy.NewExecutor(provider, graph)
	if err != nil {
		return fmt.Errorf("beavyrun: %w", err)
	}

	myInputGate := inA
	if cfg.ID == 1 {
		myInputGate = inB
	}
	if fut, ok := exec.Input(myInputGate); ok {
		bits, err := bitvec.FromBytes([]byte{input}, 8)
		if err != nil {
			return err
		}
		fut.Set(bits)
	}

	ctx := context.Background()
	if err := exec.Run(ctx); err != nil {
		return fmt.Errorf("beavyrun: %w", err)
	}

	result, ok := exec.Output(outID)
	if !ok {
		fmt.Println("run OK, no output for this party")
		return nil
	}
	out, err := result.Await(ctx)
	if err != nil {
		return fmt.Errorf("beavyrun: %w", err)
	}
	fmt.Printf("party %d output: %#02x\n", cfg.ID, out.Bytes()[0])
	return nil
}

// dialOrAccept establishes the two raw TCP connections (data, OT)
// between exactly two parties: party 0 listens, party 1 dials.
func dialOrAccept(myID int, listenData, listenOT, peerData, peerOT string) (net.Conn, net.Conn, error) {
	if myID == 0 {
		dataConn, err := acceptOnce(listenData)
		if err != nil {
			return nil, nil, err
		}
		otConn, err := acceptOnce(listenOT)
		if err != nil {
			dataConn.Close()
			return nil, nil, err
		}
		return dataConn, otConn, nil
	}
	dataConn, err := net.Dial("tcp", peerData)
	if err != nil {
		return nil, nil, err
	}
	otConn, err := net.Dial("tcp", peerOT)
	if err != nil {
		dataConn.Close()
		return nil, nil, err
	}
	return dataConn, otConn, nil
}

func acceptOnce(addr string) (net.Conn, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	defer ln.Close()
	return ln.Accept()
}

// exchangeSeed establishes the shared correlated-randomness seed the
// two parties' rng.Pair streams are keyed by. A production deployment
// derives this from an authenticated key exchange; that handshake is
// out of scope here, so party 0 simply generates and sends the seed in
// the clear before any other traffic crosses dataConn.
func exchangeSeed(myID int, dataConn net.Conn) ([32]byte, error) {
	var seed [32]byte
	if myID == 0 {
		if _, err := io.ReadFull(rand.Reader, seed[:]); err != nil {
			return seed, err
		}
		if _, err := dataConn.Write(seed[:]); err != nil {
			return seed, err
		}
		return seed, nil
	}
	if _, err := io.ReadFull(dataConn, seed[:]); err != nil {
		return seed, err
	}
	return seed, nil
}
