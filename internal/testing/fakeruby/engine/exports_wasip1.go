//go:build wasip1

package main

import (
	"os"

	"github.com/Shopify/ruvy/internal/guest"
	"github.com/Shopify/ruvy/internal/testing/fakeruby"
)

// adapter lives in linear memory, so the state initialize leaves it in is part of the snapshot.
var adapter = guest.NewAdapter(fakeruby.New(os.Stdout))

//go:wasmexport wizer.initialize
func initialize() {
	if err := adapter.Initialize(); err != nil {
		// The adapter already wrote the error to stderr.
		os.Exit(1)
	}
}

//go:wasmexport ruvy.main
func runMain() {
	exitCode, err := adapter.Main()
	if err != nil {
		panic(err)
	}
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
