// Command cardauthctl is the operator tool for cardauth: it validates policy
// files, runs the simulation catalogue offline and mints admin tokens.
package main

import (
	"fmt"
	"os"
)

var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
