//
// Copyright (c) 2026 The BEAVY Authors
//
// All rights reserved.

// Command beavyrun is a demo driver for the BEAVY engine: it builds a
// small circuit with circuit.Builder and either runs it over two
// in-process pipes (selfcheck) or connects the two parties over TCP
// (run), printing the reconstructed output bits.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "beavyrun",
		Short: "Demo driver for the BEAVY MPC engine",
	}
	root.AddCommand(newSelfcheckCmd())
	root.AddCommand(newRunCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
