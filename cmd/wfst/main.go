// Command wfst compiles, inspects, transforms and decodes with weighted
// finite-state transducers.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
