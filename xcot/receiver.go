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

// Receiver is the choice-holding side of one XCOT-bit exchange. See
// Sender for the invariant both sides establish once finished.
type Receiver struct {
	ext  *otext.IKNPExt
	conn ot.IO
	n    int

	choices *bitvec.BitVector
	labels  []ot.Label
	outputs *bitvec.BitVector
}

func newReceiver(ext *otext.IKNPExt, conn ot.IO, n int) *Receiver {
	return &Receiver{ext: ext, conn: conn, n: n}
}

// SetChoices records the choice bits for this handle. Must be called
// before SendCorrections.
func (r *Receiver) SetChoices(bits *bitvec.BitVector) error {
	if bits.Size() != r.n {
		return fmt.Errorf("xcot: choice size %d, want %d", bits.Size(), r.n)
	}
	r.choices = bits
	return nil
}

// SendCorrections runs the receiver side of the random-OT expansion for
// the stored choice bits. The name matches the sender's view: this call
// transmits the IKNP correction vector U that lets the sender reconstruct
// this side's chosen label per instance.
func (r *Receiver) SendCorrections() error {
	if r.choices == nil {
		return fmt.Errorf("xcot: SendCorrections called before SetChoices")
	}
	flags := make([]bool, r.n)
	for j := 0; j < r.n; j++ {
		flags[j] = r.choices.Bit(j) == 1
	}
	labels, err := r.ext.ExpandReceive(flags)
	if err != nil {
		return fmt.Errorf("xcot: expand: %w", err)
	}
	r.labels = labels
	return nil
}

// ComputeOutputs awaits the sender's derandomization corrections and
// folds the chosen choice bit into this side's output share. Must be
// called after SendCorrections.
func (r *Receiver) ComputeOutputs() error {
	if r.labels == nil {
		return fmt.Errorf("xcot: ComputeOutputs called before SendCorrections")
	}
	data, err := r.conn.ReceiveData()
	if err != nil {
		return fmt.Errorf("xcot: receive corrections: %w", err)
	}
	corrections, err := bitvec.FromBytes(data, r.n)
	if err != nil {
		return fmt.Errorf("xcot: corrections: %w", err)
	}

	out := bitvec.New(r.n)
	for j := 0; j < r.n; j++ {
		var d ot.LabelData
		r.labels[j].GetData(&d)
		lsb := d[0] & 1
		choice := byte(r.choices.Bit(j))
		cj := byte(corrections.Bit(j))
		out.SetBit(j, uint(lsb^(choice&cj)))
	}
	r.outputs = out
	return nil
}

// GetOutputs returns this side's share of the correlated AND. Must be
// called after ComputeOutputs.
func (r *Receiver) GetOutputs() (*bitvec.BitVector, error) {
	if r.outputs == nil {
		return nil, fmt.Errorf("xcot: GetOutputs called before ComputeOutputs")
	}
	return r.outputs, nil
}
