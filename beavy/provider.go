//
// Copyright (c) 2026 The BEAVY Authors
//
// All rights reserved.
//

// Package beavy implements the BEAVY Boolean-sharing gate substrate: the
// Provider, the primitive gate family (Input, Output, XOR, INV, AND) and
// the Executor that drives a circuit.Graph through its setup and online
// sweeps.
package beavy

import (
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/gobeavy/beavy/mux"
	"github.com/gobeavy/beavy/rng"
	"github.com/gobeavy/beavy/transport"
	"github.com/gobeavy/beavy/xcot"
)

// Provider is the process-wide computation context every gate holds a
// non-owning reference to: identity, job assignment, input-id
// allocation, correlated randomness, the message mux, the OT manager and
// the logger.
type Provider struct {
	myID       int
	numParties int

	nextInputID atomic.Uint64

	rngPeers map[int]*rng.Pair
	messages *mux.Mux
	ot       *xcot.Manager
	net      transport.Messenger

	log *zerolog.Logger
}

// Config bundles the arguments NewProvider needs beyond what the
// transport/OT managers already carry.
type Config struct {
	MyID       int
	NumParties int

	// RNGPeers maps peer id to the correlated-randomness stream pair
	// established with that peer by the out-of-scope seed handshake.
	RNGPeers map[int]*rng.Pair

	Net transport.Messenger
	OT  *xcot.Manager
	Log *zerolog.Logger
}

// NewProvider creates a Provider for one party.
func NewProvider(cfg Config) *Provider {
	return &Provider{
		myID:       cfg.MyID,
		numParties: cfg.NumParties,
		rngPeers:   cfg.RNGPeers,
		messages:   mux.New(),
		ot:         cfg.OT,
		net:        cfg.Net,
		log:        cfg.Log,
	}
}

// MyID returns this party's index.
func (p *Provider) MyID() int {
	return p.myID
}

// NumParties returns the total number of parties in the computation.
func (p *Provider) NumParties() int {
	return p.numParties
}

// IsMyJob reports whether gateID's asymmetric step (INV, the AND gate's
// extra public-share term) is this party's responsibility.
func (p *Provider) IsMyJob(gateID int) bool {
	return gateID%p.numParties == p.myID
}

// GetNextInputID reserves n consecutive input ids and returns the first
// one. Allocation is monotone for the lifetime of the Provider.
func (p *Provider) GetNextInputID(n int) int {
	first := p.nextInputID.Add(uint64(n)) - uint64(n)
	return int(first)
}

// MyRNGFor returns the correlated-randomness stream pair this party
// shares with peer: My is the stream this party drives, Their the one
// peer drives.
func (p *Provider) MyRNGFor(peer int) *rng.Pair {
	return p.rngPeers[peer]
}

// Messages returns the MessageMux every gate registers its peer-facing
// futures against.
func (p *Provider) Messages() *mux.Mux {
	return p.messages
}

// OT returns the OT manager gates register their XCOT-bit handles
// against.
func (p *Provider) OT() *xcot.Manager {
	return p.ot
}

// Net returns the transport this party's gates broadcast and
// point-to-point send through.
func (p *Provider) Net() transport.Messenger {
	return p.net
}

// Log returns the party's structured logger. The gates in this package
// do not write to it.
func (p *Provider) Log() *zerolog.Logger {
	return p.log
}
