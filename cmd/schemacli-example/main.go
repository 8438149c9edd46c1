package main

import (
	"fmt"
	"os"

	"github.com/thellimist/schemacli"
)

var version = "dev"

func main() {
	r, err := newRunner(os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	schemacli.RunAndExit(r)
}
