//
// Copyright (c) 2026 The BEAVY Authors
//
// All rights reserved.
//

package beavy

import (
	"encoding/json"
	"fmt"
	"io"
)

// PeerConfig describes one other party's network addresses as seen by
// the party loading this configuration. DataAddr carries gate messages;
// OTAddr carries the base-OT/IKNP-extension bootstrap and every AND
// gate's correlated-OT traffic — kept separate so the two protocols
// never interleave on one socket.
type PeerConfig struct {
	ID       int    `json:"id"`
	DataAddr string `json:"data_addr"`
	OTAddr   string `json:"ot_addr"`
}

// PartyConfig is one party's view of the whole computation: its own id,
// the total party count, and how to reach every peer. It is the unit
// cmd/beavyrun loads from JSON; NewProvider takes a Config instead.
type PartyConfig struct {
	ID         int          `json:"id"`
	NumParties int          `json:"num_parties"`
	Peers      []PeerConfig `json:"peers"`
}

// LoadPartyConfig decodes a PartyConfig from r and validates it.
func LoadPartyConfig(r io.Reader) (*PartyConfig, error) {
	var cfg PartyConfig
	if err := json.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("beavy: decode party config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks internal consistency: id in range, no duplicate or
// self-referencing peers, and exactly one entry per other party.
func (c *PartyConfig) Validate() error {
	if c.NumParties < 2 {
		return fmt.Errorf("beavy: num_parties must be at least 2, got %d", c.NumParties)
	}
	if c.ID < 0 || c.ID >= c.NumParties {
		return fmt.Errorf("beavy: party id %d out of range [0,%d)", c.ID, c.NumParties)
	}
	seen := make(map[int]bool, len(c.Peers))
	for _, p := range c.Peers {
		if p.ID == c.ID {
			return fmt.Errorf("beavy: peer list must not include self (id %d)", p.ID)
		}
		if p.ID < 0 || p.ID >= c.NumParties {
			return fmt.Errorf("beavy: peer id %d out of range [0,%d)", p.ID, c.NumParties)
		}
		if seen[p.ID] {
			return fmt.Errorf("beavy: duplicate peer id %d", p.ID)
		}
		seen[p.ID] = true
	}
	if len(seen) != c.NumParties-1 {
		return fmt.Errorf("beavy: expected %d peers, got %d", c.NumParties-1, len(seen))
	}
	return nil
}

// Peer returns the configured entry for peer id, if present.
func (c *PartyConfig) Peer(id int) (PeerConfig, bool) {
	for _, p := range c.Peers {
		if p.ID == id {
			return p, true
		}
	}
	return PeerConfig{}, false
}
