//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

package otext

import (
	"errors"
	"io"

	"github.com/gobeavy/beavy/ot"
)

const (
	// IKNPK defines the security parameter k of the IKNP
	// protocol. The IKNPK is the number of base-OTs.
	IKNPK = 128
)

// Role distinguishes the two sides of one IKNP OT-extension session.
type Role int

const (
	// SenderRole plays the OT-extension sender: it ends up holding
	// both candidate labels per instance.
	SenderRole Role = iota
	// ReceiverRole plays the OT-extension receiver: it ends up
	// holding exactly one chosen label per instance.
	ReceiverRole
)

// IKNPExt implements one side of an IKNP OT-extension session, set up
// once against a peer and then expanded to arbitrarily many random OT
// instances cheaply. Role selects which side Setup/Expand* run as.
type IKNPExt struct {
	role Role
	base ot.OT
	conn ot.IO
	k    int

	// sender-role state, set by Setup.
	choices []bool
	seedS   []ot.LabelData

	// receiver-role state, set by Setup.
	seed0 []ot.LabelData
	seed1 []ot.LabelData
}

// NewIKNPExt creates an OT-extension session bound to base (the k=128
// base OTs used to bootstrap the extension) and conn (the channel the
// extension's own protocol messages travel over). Call Setup once
// before any Expand* call.
func NewIKNPExt(base ot.OT, conn ot.IO, role Role) *IKNPExt {
	return &IKNPExt{role: role, base: base, conn: conn, k: IKNPK}
}

// WithConn returns a shallow copy of e bound to a different connection,
// sharing the already-established base-OT seeds. Expand* never mutates
// seed state, so the copy is safe to use concurrently with e itself or
// with other WithConn copies, letting one base-OT setup serve many
// independent per-gate expansions over their own framed sub-streams.
func (e *IKNPExt) WithConn(conn ot.IO) *IKNPExt {
	c := *e
	c.conn = conn
	return &c
}

// Setup runs the k base OTs this session needs, using r for the
// session's own randomness (choice bits on the sender side, wire
// labels on the receiver side).
func (e *IKNPExt) Setup(r io.Reader) error {
	switch e.role {
	case SenderRole:
		return e.setupSender(r)
	case ReceiverRole:
		return e.setupReceiver(r)
	default:
		return errors.New("otext: unknown role")
	}
}

// setupSender plays the base-OT receiver role: it picks k random
// choice bits (its share of the eventual global correlation) and
// receives one seed label per bit.
func (e *IKNPExt) setupSender(r io.Reader) error {
	choices := make([]bool, IKNPK)
	var buf [IKNPK / 8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return err
	}
	for i := 0; i < IKNPK; i++ {
		choices[i] = ((buf[i/8] >> uint(i%8)) & 1) == 1
	}

	labels := make([]ot.Label, IKNPK)
	if err := e.base.Receive(choices, labels); err != nil {
		return err
	}

	seedS := make([]ot.LabelData, IKNPK)
	for i := 0; i < IKNPK; i++ {
		labels[i].GetData(&seedS[i])
	}

	e.choices = choices
	e.seedS = seedS
	return nil
}

// setupReceiver plays the base-OT sender role: it picks two random
// seed labels per base OT and sends both through e.base.
func (e *IKNPExt) setupReceiver(r io.Reader) error {
	seed0 := make([]ot.LabelData, IKNPK)
	seed1 := make([]ot.LabelData, IKNPK)

	wires := make([]ot.Wire, IKNPK)
	for i := 0; i < IKNPK; i++ {
		l0, err := ot.NewLabel(r)
		if err != nil {
			return err
		}
		l1, err := ot.NewLabel(r)
		if err != nil {
			return err
		}
		l0.GetData(&seed0[i])
		l1.GetData(&seed1[i])

		wires[i] = ot.Wire{L0: l0, L1: l1}
	}
	if err := e.base.Send(wires); err != nil {
		return err
	}

	e.seed0 = seed0
	e.seed1 = seed1
	return nil
}

// ExpandSend runs the sender side of the extension, producing n
// independent random OT instances. wires[j].L0/L1 are both known to
// this side; the receiver's ExpandReceive call with the matching flags
// learns exactly one of each pair.
func (e *IKNPExt) ExpandSend(n int) ([]ot.Wire, error) {
	if e.role != SenderRole {
		return nil, errors.New("otext: ExpandSend called on a receiver-role session")
	}
	if n <= 0 {
		return nil, errors.New("otext: n must be positive")
	}

	rowBytes := (n + 7) / 8
	total := IKNPK * rowBytes

	// Receive U (k correction rows), one per base-OT index.
	u, err := e.conn.ReceiveData()
	if err != nil {
		return nil, err
	}
	if len(u) < total {
		return nil, errors.New("otext: short U vector")
	}

	// rows[i] = PRG(seedS[i]) xor (choices[i] ? U_row_i : 0), which
	// equals the receiver's T0 row for every i regardless of choice.
	rows := make([][]byte, IKNPK)
	for i := 0; i < IKNPK; i++ {
		rows[i] = make([]byte, rowBytes)
		prgAESCTR(e.seedS[i][:], rows[i])

		if e.choices[i] {
			urow := u[i*rowBytes : (i+1)*rowBytes]
			for j := 0; j < rowBytes; j++ {
				rows[i][j] ^= urow[j]
			}
		}
	}

	wires := make([]ot.Wire, n)
	for j := 0; j < n; j++ {
		var b0, b1 ot.LabelData

		byteRow := j / 8
		bitPos := uint(j % 8)

		for bit := 0; bit < IKNPK; bit++ {
			rowBit := (rows[bit][byteRow] >> bitPos) & 1
			bytePos := bit / 8
			inner := uint(7 - (bit % 8))
			if rowBit == 1 {
				b0[bytePos] |= 1 << inner
			}

			urow := u[bit*rowBytes : (bit+1)*rowBytes]
			uBit := (urow[byteRow] >> bitPos) & 1
			if (rowBit ^ uBit) == 1 {
				b1[bytePos] |= 1 << inner
			}
		}

		var l0, l1 ot.Label
		l0.SetData(&b0)
		l1.SetData(&b1)
		wires[j] = ot.Wire{L0: l0, L1: l1}
	}

	return wires, nil
}

// ExpandReceive runs the receiver side of the extension, choosing one
// label per instance according to flags. len(flags) fixes n.
func (e *IKNPExt) ExpandReceive(flags []bool) ([]ot.Label, error) {
	if e.role != ReceiverRole {
		return nil, errors.New("otext: ExpandReceive called on a sender-role session")
	}
	n := len(flags)
	if n == 0 {
		return nil, errors.New("otext: flags empty")
	}
	rowBytes := (n + 7) / 8

	t0 := make([][]byte, IKNPK)
	t1 := make([][]byte, IKNPK)
	for i := 0; i < IKNPK; i++ {
		t0[i] = make([]byte, rowBytes)
		t1[i] = make([]byte, rowBytes)
		prgAESCTR(e.seed0[i][:], t0[i])
		prgAESCTR(e.seed1[i][:], t1[i])
	}

	u := make([]byte, IKNPK*rowBytes)
	for i := 0; i < IKNPK; i++ {
		for j := 0; j < rowBytes; j++ {
			u[i*rowBytes+j] = t0[i][j] ^ t1[i][j]
		}
	}
	if err := e.conn.SendData(u); err != nil {
		return nil, err
	}
	if err := e.conn.Flush(); err != nil {
		return nil, err
	}

	out := make([]ot.Label, n)
	for j := 0; j < n; j++ {
		var b ot.LabelData
		byteRow := j / 8
		bitPos := uint(j % 8)

		for bit := 0; bit < IKNPK; bit++ {
			var rowBit byte
			if flags[j] {
				rowBit = (t1[bit][byteRow] >> bitPos) & 1
			} else {
				rowBit = (t0[bit][byteRow] >> bitPos) & 1
			}
			bytePos := bit / 8
			inner := uint(7 - (bit % 8))
			if rowBit == 1 {
				b[bytePos] |= 1 << inner
			}
		}

		out[j].SetData(&b)
	}

	return out, nil
}
