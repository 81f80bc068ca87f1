package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "[netzero-testops] Error: %v\n", err)
		os.Exit(1)
	}
}
