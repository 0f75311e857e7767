//
// Copyright (c) 2026 The BEAVY Authors
//
// All rights reserved.
//

package beavy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadPartyConfigValid(t *testing.T) {
	cfg, err := LoadPartyConfig(strings.NewReader(`{
		"id": 0,
		"num_parties": 2,
		"peers": [{"id": 1, "data_addr": "127.0.0.1:9001", "ot_addr": "127.0.0.1:9002"}]
	}`))
	require.NoError(t, err)
	require.Equal(t, 0, cfg.ID)
	require.Equal(t, 2, cfg.NumParties)

	peer, ok := cfg.Peer(1)
	require.True(t, ok)
	require.Equal(t, "127.0.0.1:9001", peer.DataAddr)

	_, ok = cfg.Peer(2)
	require.False(t, ok)
}

func TestPartyConfigValidateRejectsSelfPeer(t *testing.T) {
	cfg := PartyConfig{ID: 0, NumParties: 2, Peers: []PeerConfig{{ID: 0}}}
	require.Error(t, cfg.Validate())
}

func TestPartyConfigValidateRejectsDuplicatePeer(t *testing.T) {
	cfg := PartyConfig{ID: 0, NumParties: 3, Peers: []PeerConfig{{ID: 1}, {ID: 1}}}
	require.Error(t, cfg.Validate())
}

func TestPartyConfigValidateRejectsMissingPeer(t *testing.T) {
	cfg := PartyConfig{ID: 0, NumParties: 3, Peers: []PeerConfig{{ID: 1}}}
	require.Error(t, cfg.Validate())
}

func TestPartyConfigValidateRejectsOutOfRangeID(t *testing.T) {
	cfg := PartyConfig{ID: 5, NumParties: 2, Peers: []PeerConfig{{ID: 1}}}
	require.Error(t, cfg.Validate())
}

func TestPartyConfigValidateAcceptsThreeParties(t *testing.T) {
	cfg := PartyConfig{ID: 1, NumParties: 3, Peers: []PeerConfig{{ID: 0}, {ID: 2}}}
	require.NoError(t, cfg.Validate())
}
