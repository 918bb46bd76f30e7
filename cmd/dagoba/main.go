package main

import (
	"fmt"
	"os"
)

// Version information set by ldflags.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, paint(errorStyle, "error: "+err.Error()))
		os.Exit(1)
	}
}
