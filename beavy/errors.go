//
// Copyright (c) 2026 The BEAVY Authors
//
// All rights reserved.
//

package beavy

import "errors"

// Sentinel errors for the gate substrate's fatal error kinds. BadInput
// and NotMyOutput are caller-misuse errors returned synchronously;
// ProtocolFailure wraps a fatal transport or OT failure that a gate hit
// and is returned from that gate's Evaluate call. Size mismatches on wire values surface as
// bitvec.ErrSizeMismatch, not a beavy-local sentinel.
var (
	ErrBadInput        = errors.New("beavy: bad input")
	ErrNotMyOutput     = errors.New("beavy: not my output")
	ErrProtocolFailure = errors.New("beavy: protocol failure")
)
