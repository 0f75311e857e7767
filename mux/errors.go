//
// Copyright (c) 2026 The BEAVY Authors
//
// All rights reserved.
//

package mux

import "errors"

// ErrUnregisteredMessage is returned (and is fatal) when a message
// arrives for a (sender, gate_id) pair that was never registered. It
// indicates the peers' protocols have diverged.
var ErrUnregisteredMessage = errors.New("unregistered message")

// ErrDuplicateMessage is returned (and is fatal) when a second message
// arrives for a (sender, gate_id) pair that already completed.
var ErrDuplicateMessage = errors.New("duplicate message")
