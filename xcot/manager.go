//
// Copyright (c) 2026 The BEAVY Authors
//
// All rights reserved.
//

package xcot

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/gobeavy/beavy/ot"
	"github.com/gobeavy/beavy/otext"
)

// Reserved gate ids for the two persistent base-OT/IKNP-setup channels a
// peer pair opens once, ahead of any real gate's traffic. Real gate ids
// are non-negative, so these never collide.
//
// Each channel belongs to whichever of the two peers has the lower id:
// gateLoSenderBase carries the lower-id party's IKNP-extension-sender
// setup (paired with the higher-id party's extension-receiver setup on
// the very same channel), and gateHiSenderBase carries the reverse. Both
// parties run the identical AddPeer body, so the role taken on each
// channel must be decided by comparing ids rather than hardcoded, or
// both ends would take the same base-OT role and neither would ever see
// the other's message.
const (
	gateLoSenderBase = -1
	gateHiSenderBase = -2
)

// peerOT holds everything needed to service one peer: the two persistent
// IKNP-extension sessions (one per direction) set up once against base
// OTs, and the frame router multiplexing every gate's XCOT traffic over
// the single underlying connection.
type peerOT struct {
	conn ot.IO
	mux  *ioMux

	wmu sync.Mutex // serializes writes to conn; ioMux fans many streams into one

	// iAmLower records which side of the lo/hi split this party is on
	// relative to this peer, so every gate's Register call can tag its
	// sub-channel the same way AddPeer tags the base-OT channels.
	iAmLower bool

	// sendExt: my role is the IKNP-extension sender against this peer.
	sendExt *otext.IKNPExt
	// recvExt: my role is the IKNP-extension receiver against this peer.
	recvExt *otext.IKNPExt
}

// Manager owns one peerOT per configured peer and hands out the
// per-gate Sender/Receiver OT handles every AND gate registers.
type Manager struct {
	myID int

	mu    sync.RWMutex
	peers map[int]*peerOT
}

// NewManager creates an empty Manager for party myID. Call AddPeer once
// per peer before registering any gate's OT handles with that peer.
func NewManager(myID int) *Manager {
	return &Manager{myID: myID, peers: make(map[int]*peerOT)}
}

// AddPeer establishes the two persistent IKNP-extension sessions backing
// every future XCOT-bit handle with peerID, over conn. Both parties of a
// pair must call AddPeer with the same logical conn (directly, or via a
// transport adapter) at roughly the same time; the call blocks until the
// base OTs and extension setup finish.
func (m *Manager) AddPeer(peerID int, conn ot.IO) error {
	p := &peerOT{conn: conn}
	p.mux = newIOMux(p.sendFrame)

	loChan := p.mux.open(gateLoSenderBase, roleLoSender)
	hiChan := p.mux.open(gateHiSenderBase, roleHiSender)
	go p.readLoop()

	iAmLower := m.myID < peerID
	p.iAmLower = iAmLower

	// loChan: lower-id party is the IKNP-extension sender (base-OT
	// receiver role), higher-id party is the extension receiver.
	if iAmLower {
		base := ot.NewCO(rand.Reader)
		if err := base.InitReceiver(loChan); err != nil {
			return fmt.Errorf("xcot: init base OT (sender ext role): %w", err)
		}
		sendExt := otext.NewIKNPExt(base, loChan, otext.SenderRole)
		if err := sendExt.Setup(rand.Reader); err != nil {
			return fmt.Errorf("xcot: setup sender extension with peer %d: %w", peerID, err)
		}
		p.sendExt = sendExt
	} else {
		base := ot.NewCO(rand.Reader)
		if err := base.InitSender(loChan); err != nil {
			return fmt.Errorf("xcot: init base OT (receiver ext role): %w", err)
		}
		recvExt := otext.NewIKNPExt(base, loChan, otext.ReceiverRole)
		if err := recvExt.Setup(rand.Reader); err != nil {
			return fmt.Errorf("xcot: setup receiver extension with peer %d: %w", peerID, err)
		}
		p.recvExt = recvExt
	}

	// hiChan: higher-id party is the IKNP-extension sender, lower-id
	// party is the extension receiver — the mirror image of loChan.
	if iAmLower {
		base := ot.NewCO(rand.Reader)
		if err := base.InitSender(hiChan); err != nil {
			return fmt.Errorf("xcot: init base OT (receiver ext role): %w", err)
		}
		recvExt := otext.NewIKNPExt(base, hiChan, otext.ReceiverRole)
		if err := recvExt.Setup(rand.Reader); err != nil {
			return fmt.Errorf("xcot: setup receiver extension with peer %d: %w", peerID, err)
		}
		p.recvExt = recvExt
	} else {
		base := ot.NewCO(rand.Reader)
		if err := base.InitReceiver(hiChan); err != nil {
			return fmt.Errorf("xcot: init base OT (sender ext role): %w", err)
		}
		sendExt := otext.NewIKNPExt(base, hiChan, otext.SenderRole)
		if err := sendExt.Setup(rand.Reader); err != nil {
			return fmt.Errorf("xcot: setup sender extension with peer %d: %w", peerID, err)
		}
		p.sendExt = sendExt
	}

	m.mu.Lock()
	m.peers[peerID] = p
	m.mu.Unlock()
	return nil
}

// ForPeer returns the handle factory for peerID. AddPeer must already
// have been called for that peer.
func (m *Manager) ForPeer(peerID int) (*PeerHandles, error) {
	m.mu.RLock()
	p, ok := m.peers[peerID]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("xcot: no OT session established with peer %d", peerID)
	}
	return &PeerHandles{peer: p}, nil
}

// PeerHandles is the per-peer handle factory a Provider's OT manager
// hands back from ForPeer, used to register one gate's Sender or
// Receiver XCOT-bit handle against that peer.
type PeerHandles struct {
	peer *peerOT
}

// RegisterSendXCOTBit allocates this side's correlation-holding XCOT
// handle for gateID, sized to n bit instances. Registration must happen
// before the owning gate's setup sweep runs.
//
// The sub-channel tag is picked by the same lo/hi split AddPeer uses
// for the base-OT channels, not by this side's own Sender/Receiver
// role: my Sender's frames must land on my peer's Receiver stream, and
// the peer computes its Receiver's tag from the opposite side of the
// same split, so the two agree on one shared tag.
func (h *PeerHandles) RegisterSendXCOTBit(gateID, n int) *Sender {
	tag := roleLoSender
	if !h.peer.iAmLower {
		tag = roleHiSender
	}
	conn := h.peer.mux.open(gateID, tag)
	ext := h.peer.sendExt.WithConn(conn)
	return newSender(ext, conn, n)
}

// RegisterReceiveXCOTBit allocates this side's choice-holding XCOT
// handle for gateID, sized to n bit instances. Registration must happen
// before the owning gate's setup sweep runs. See RegisterSendXCOTBit
// for why the tag is derived from the lo/hi split rather than fixed.
func (h *PeerHandles) RegisterReceiveXCOTBit(gateID, n int) *Receiver {
	tag := roleHiSender
	if !h.peer.iAmLower {
		tag = roleLoSender
	}
	conn := h.peer.mux.open(gateID, tag)
	ext := h.peer.recvExt.WithConn(conn)
	return newReceiver(ext, conn, n)
}

// sendFrame writes one (gateID, role, payload) frame to the underlying
// connection, serialized against concurrent senders sharing conn.
func (p *peerOT) sendFrame(gateID int, r role, payload []byte) error {
	p.wmu.Lock()
	defer p.wmu.Unlock()

	var hdr [5]byte
	binary.BigEndian.PutUint32(hdr[:4], uint32(int32(gateID)))
	hdr[4] = byte(r)

	framed := make([]byte, 0, len(hdr)+len(payload))
	framed = append(framed, hdr[:]...)
	framed = append(framed, payload...)

	if err := p.conn.SendData(framed); err != nil {
		return err
	}
	return p.conn.Flush()
}

// readLoop drains conn, demultiplexing every frame to its (gateID, role)
// stream. It runs for the lifetime of the peer connection; a read error
// poisons every stream still waiting.
func (p *peerOT) readLoop() {
	for {
		data, err := p.conn.ReceiveData()
		if err != nil {
			p.mux.poisonAll(err)
			return
		}
		if len(data) < 5 {
			p.mux.poisonAll(fmt.Errorf("xcot: short frame (%d bytes)", len(data)))
			return
		}
		gateID := int(int32(binary.BigEndian.Uint32(data[:4])))
		r := role(data[4])
		payload := data[5:]
		if err := p.mux.deliver(gateID, r, payload); err != nil {
			p.mux.poisonAll(err)
			return
		}
	}
}
