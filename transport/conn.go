//
// Copyright (c) 2026 The BEAVY Authors
//
// All rights reserved.
//

// Package transport implements the Messenger contract the beavy gate
// substrate consumes: framing bit-vector messages as (gate_id,
// payload_len_bits, payload) and routing inbound frames to the party's
// MessageMux. Conn builds on p2p.Conn's buffered read/write loop,
// generalized from its fixed uint32 framing to varints.
package transport

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/gobeavy/beavy/bitvec"
	"github.com/gobeavy/beavy/p2p"
)

// Conn frames one peer connection's bit-vector traffic. It owns no
// dispatch policy; Router drives ReceiveFrame in a loop and fans frames
// out to the MessageMux.
type Conn struct {
	peerID int
	pconn  *p2p.Conn
}

// NewConn wraps rw (typically a net.Conn) as a framed peer connection
// tagged with peerID, the sender identity this connection always carries
// for inbound frames.
func NewConn(peerID int, rw io.ReadWriter) *Conn {
	return &Conn{peerID: peerID, pconn: p2p.NewConn(rw)}
}

// PeerID returns the identity this connection's inbound frames are
// attributed to.
func (c *Conn) PeerID() int {
	return c.peerID
}

// SendFrame writes one (gate_id, payload_len_bits, payload) frame.
func (c *Conn) SendFrame(gateID int, payload *bitvec.BitVector) error {
	var hdr [2 * binary.MaxVarintLen64]byte
	n := binary.PutVarint(hdr[:], int64(gateID))
	n += binary.PutVarint(hdr[n:], int64(payload.Size()))

	framed := make([]byte, 0, n+len(payload.Bytes()))
	framed = append(framed, hdr[:n]...)
	framed = append(framed, payload.Bytes()...)

	if err := c.pconn.SendData(framed); err != nil {
		return err
	}
	return c.pconn.Flush()
}

// ReceiveFrame blocks for the next inbound frame and returns its gate id
// and payload.
func (c *Conn) ReceiveFrame() (int, *bitvec.BitVector, error) {
	data, err := c.pconn.ReceiveData()
	if err != nil {
		return 0, nil, err
	}
	gateID, n := binary.Varint(data)
	if n <= 0 {
		return 0, nil, fmt.Errorf("transport: malformed frame header (gate_id)")
	}
	rest := data[n:]
	numBits, m := binary.Varint(rest)
	if m <= 0 {
		return 0, nil, fmt.Errorf("transport: malformed frame header (payload_len_bits)")
	}
	payloadBytes := rest[m:]
	bv, err := bitvec.FromBytes(payloadBytes, int(numBits))
	if err != nil {
		return 0, nil, fmt.Errorf("transport: payload: %w", err)
	}
	return int(gateID), bv, nil
}
