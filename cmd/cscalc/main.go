// Package main provides cscalc, a command-line front end for the congenital
// syphilis outcome evaluator.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
