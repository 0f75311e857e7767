//
// Copyright (c) 2026 The BEAVY Authors
//
// All rights reserved.

package main

import "io"

// halfDuplexPipe pairs an io.Pipe reader half with the peer's writer
// half into a single io.ReadWriter, the way p2p.pipe does for the
// higher-level p2p.Conn framing. transport.Conn wraps its own p2p.Conn
// around whatever io.ReadWriter it is given, so the transport link needs
// its own raw pipe distinct from the one OT bootstrapping uses.
type halfDuplexPipe struct {
	r io.Reader
	w io.Writer
}

func (p halfDuplexPipe) Read(data []byte) (int, error)  { return p.r.Read(data) }
func (p halfDuplexPipe) Write(data []byte) (int, error) { return p.w.Write(data) }

// rawPipe returns two connected io.ReadWriter endpoints: anything
// written to one is read from the other.
func rawPipe() (io.ReadWriter, io.ReadWriter) {
	ar, aw := io.Pipe()
	br, bw := io.Pipe()
	return halfDuplexPipe{r: ar, w: bw}, halfDuplexPipe{r: br, w: aw}
}
