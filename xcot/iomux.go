//
// Copyright (c) 2026 The BEAVY Authors
//
// All rights reserved.
//

package xcot

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/gobeavy/beavy/ot"
)

// role tags which of the two OT-extension sessions a gate's frame
// belongs to. A gate opens two sub-channels with its peer: one where
// the lower-id party runs the IKNP-extension sender and the higher-id
// party the receiver, and the mirror channel with the roles swapped —
// the same lo/hi split Manager.AddPeer uses for the base-OT bootstrap
// channels. Both ends of a pair must tag a given logical sub-channel
// with the same role value, or deliver would hand a Sender's frames to
// the wrong local stream; PeerHandles.RegisterSendXCOTBit/
// RegisterReceiveXCOTBit compute it from which side of the lo/hi split
// the caller is on, not from the caller's own Sender/Receiver role.
type role byte

const (
	roleLoSender role = 0
	roleHiSender role = 1
)

// streamKey identifies one ordered OT sub-session.
type streamKey struct {
	gateID int
	role   role
}

// streamIO adapts one ordered OT sub-session onto ot.IO. It never
// constructs its own framing beyond length-prefixing, matching
// p2p.Conn's style. CO and the IKNP extension call SendData,
// ReceiveData and Flush; SendUint32/ReceiveUint32 and
// SendLabel/ReceiveLabel are implemented for interface completeness but
// go unused on this path.
type streamIO struct {
	send func([]byte) error
	in   chan []byte
	mux  *ioMux
}

var _ ot.IO = &streamIO{}

func (s *streamIO) SendData(val []byte) error {
	return s.send(append([]byte(nil), val...))
}

func (s *streamIO) SendUint32(val int) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(val))
	return s.send(buf[:])
}

func (s *streamIO) Flush() error {
	return nil
}

func (s *streamIO) ReceiveData() ([]byte, error) {
	select {
	case data, ok := <-s.in:
		if !ok {
			return nil, fmt.Errorf("xcot: stream closed")
		}
		return data, nil
	case <-s.mux.poisonCh:
		return nil, s.mux.poisonErr
	}
}

func (s *streamIO) ReceiveUint32() (int, error) {
	data, err := s.ReceiveData()
	if err != nil {
		return 0, err
	}
	if len(data) != 4 {
		return 0, fmt.Errorf("xcot: expected 4 bytes, got %d", len(data))
	}
	return int(binary.BigEndian.Uint32(data)), nil
}

func (s *streamIO) SendLabel(val ot.Label, buf *ot.LabelData) error {
	val.GetData(buf)
	return s.send(buf[:])
}

func (s *streamIO) ReceiveLabel(val *ot.Label, buf *ot.LabelData) error {
	data, err := s.ReceiveData()
	if err != nil {
		return err
	}
	if len(data) != len(*buf) {
		return fmt.Errorf("xcot: expected %d label bytes, got %d", len(*buf), len(data))
	}
	copy(buf[:], data)
	val.SetData(buf)
	return nil
}

// ioMux multiplexes the raw OT-extension byte frames of many concurrent
// AND gates over one logical connection to a peer, the same way package
// mux multiplexes application bit-vector messages by (sender, gate_id).
// It has no notion of BitVector or gate semantics; it only routes frames.
type ioMux struct {
	mu      sync.Mutex
	streams map[streamKey]chan []byte
	sendOut func(gateID int, r role, payload []byte) error

	poisonOnce sync.Once
	poisonCh   chan struct{}
	poisonErr  error
}

func newIOMux(sendOut func(gateID int, r role, payload []byte) error) *ioMux {
	return &ioMux{
		streams:  make(map[streamKey]chan []byte),
		sendOut:  sendOut,
		poisonCh: make(chan struct{}),
	}
}

// open registers (or reuses) the channel for one sub-session and returns
// an ot.IO view onto it.
func (m *ioMux) open(gateID int, r role) *streamIO {
	m.mu.Lock()
	k := streamKey{gateID, r}
	ch, ok := m.streams[k]
	if !ok {
		ch = make(chan []byte, 64)
		m.streams[k] = ch
	}
	m.mu.Unlock()

	return &streamIO{
		send: func(payload []byte) error {
			return m.sendOut(gateID, r, payload)
		},
		in:  ch,
		mux: m,
	}
}

// deliver routes one inbound frame to its sub-session's queue. It is
// fatal protocol divergence if no session was opened for (gateID, r).
func (m *ioMux) deliver(gateID int, r role, payload []byte) error {
	m.mu.Lock()
	ch, ok := m.streams[streamKey{gateID, r}]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("xcot: frame for unregistered session gate=%d role=%d", gateID, r)
	}
	ch <- payload
	return nil
}

// poisonAll releases every ReceiveData call still blocked on this mux
// with err, exactly once. Used when the underlying connection fails.
func (m *ioMux) poisonAll(err error) {
	m.poisonOnce.Do(func() {
		m.poisonErr = err
		close(m.poisonCh)
	})
}
