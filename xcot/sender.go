//
// Copyright (c) 2026 The BEAVY Authors
//
// All rights reserved.
//

package xcot

import (
	"fmt"

	"github.com/gobeavy/beavy/bitvec"
	"github.com/gobeavy/beavy/ot"
	"github.com/gobeavy/beavy/otext"
)

// Sender is the correlation-holding side of one XCOT-bit exchange. Once
// both sides finish, sender.GetOutputs() xor receiver.GetOutputs() equals
// the bitwise AND of this side's correlations and the peer's choices.
type Sender struct {
	ext  *otext.IKNPExt
	conn ot.IO
	n    int

	correlations *bitvec.BitVector
	wires        []ot.Wire
	outputs      *bitvec.BitVector
}

func newSender(ext *otext.IKNPExt, conn ot.IO, n int) *Sender {
	return &Sender{ext: ext, conn: conn, n: n}
}

// SetCorrelations records the correlation bits for this handle. Must be
// called before SendMessages.
func (s *Sender) SetCorrelations(bits *bitvec.BitVector) error {
	if bits.Size() != s.n {
		return fmt.Errorf("xcot: correlation size %d, want %d", bits.Size(), s.n)
	}
	s.correlations = bits
	return nil
}

// SendMessages expands the random-OT instances backing this handle and
// derandomizes them against the stored correlations, sending one
// correction byte vector to the peer. Receive side of the expansion (the
// IKNP correction vector U) happens inside ExpandSend itself.
func (s *Sender) SendMessages() error {
	if s.correlations == nil {
		return fmt.Errorf("xcot: SendMessages called before SetCorrelations")
	}
	wires, err := s.ext.ExpandSend(s.n)
	if err != nil {
		return fmt.Errorf("xcot: expand: %w", err)
	}
	s.wires = wires

	corrections := bitvec.New(s.n)
	for j := 0; j < s.n; j++ {
		var d0, d1 ot.LabelData
		wires[j].L0.GetData(&d0)
		wires[j].L1.GetData(&d1)
		c := (d0[0] & 1) ^ (d1[0] & 1) ^ byte(s.correlations.Bit(j))
		corrections.SetBit(j, uint(c))
	}
	if err := s.conn.SendData(corrections.Bytes()); err != nil {
		return fmt.Errorf("xcot: send corrections: %w", err)
	}
	return s.conn.Flush()
}

// ComputeOutputs derives this side's share of the AND from the expanded
// labels. Must be called after SendMessages.
func (s *Sender) ComputeOutputs() error {
	if s.wires == nil {
		return fmt.Errorf("xcot: ComputeOutputs called before SendMessages")
	}
	out := bitvec.New(s.n)
	for j := 0; j < s.n; j++ {
		var d0 ot.LabelData
		s.wires[j].L0.GetData(&d0)
		out.SetBit(j, uint(d0[0]&1))
	}
	s.outputs = out
	return nil
}

// GetOutputs returns this side's share of the correlated AND. Must be
// called after ComputeOutputs.
func (s *Sender) GetOutputs() (*bitvec.BitVector, error) {
	if s.outputs == nil {
		return nil, fmt.Errorf("xcot: GetOutputs called before ComputeOutputs")
	}
	return s.outputs, nil
}
