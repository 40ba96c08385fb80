// Package main implements the scry-vocab command: the review API server plus
// its schema and token tooling.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
