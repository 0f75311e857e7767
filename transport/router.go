//
// Copyright (c) 2026 The BEAVY Authors
//
// All rights reserved.
//

package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/gobeavy/beavy/bitvec"
	"github.com/gobeavy/beavy/mux"
)

// Messenger is the contract the beavy gate substrate consumes: sending a
// payload to one peer or to everyone, tagged by gate id. The sender
// identity of inbound traffic is carried by the connection, not the
// call, which is why Messenger has no Receive method — delivery happens
// out-of-band into the MessageMux gates already registered futures
// against.
type Messenger interface {
	Send(ctx context.Context, peer, gateID int, payload *bitvec.BitVector) error
	Broadcast(ctx context.Context, gateID int, payload *bitvec.BitVector) error
}

// Router multiplexes every peer Conn of one party into a single
// Messenger, and runs the read loops that deliver inbound frames into
// the party's MessageMux.
type Router struct {
	myID  int
	mux   *mux.Mux
	mu    sync.RWMutex
	conns map[int]*Conn
}

// NewRouter creates a Router for myID, delivering inbound frames into m.
func NewRouter(myID int, m *mux.Mux) *Router {
	return &Router{myID: myID, mux: m, conns: make(map[int]*Conn)}
}

// AddPeer registers conn and starts its read loop. conn.PeerID() is the
// identity inbound frames on it are attributed to.
func (r *Router) AddPeer(conn *Conn) {
	r.mu.Lock()
	r.conns[conn.PeerID()] = conn
	r.mu.Unlock()

	go r.readLoop(conn)
}

func (r *Router) readLoop(conn *Conn) {
	for {
		gateID, payload, err := conn.ReceiveFrame()
		if err != nil {
			r.mux.Poison(fmt.Errorf("transport: peer %d: %w", conn.PeerID(), err))
			return
		}
		if err := r.mux.Deliver(conn.PeerID(), gateID, payload); err != nil {
			r.mux.Poison(err)
			return
		}
	}
}

// Send implements Messenger, delivering payload to peer alone.
func (r *Router) Send(ctx context.Context, peer, gateID int, payload *bitvec.BitVector) error {
	r.mu.RLock()
	conn, ok := r.conns[peer]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("transport: no connection to peer %d", peer)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- conn.SendFrame(gateID, payload) }()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Broadcast implements Messenger, delivering payload to every peer. The
// sender's own slot (if any) is never touched; broadcasting is purely a
// wire-level fan-out, not a local loopback.
func (r *Router) Broadcast(ctx context.Context, gateID int, payload *bitvec.BitVector) error {
	r.mu.RLock()
	conns := make([]*Conn, 0, len(r.conns))
	for _, c := range r.conns {
		conns = append(conns, c)
	}
	r.mu.RUnlock()

	errCh := make(chan error, len(conns))
	for _, c := range conns {
		c := c
		go func() { errCh <- c.SendFrame(gateID, payload) }()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	var firstErr error
	for i := 0; i < len(conns); i++ {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

var _ Messenger = &Router{}
