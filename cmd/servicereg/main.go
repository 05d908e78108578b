// Command servicereg composes annotated Go services into an ordered
// registration plan, prints it, or writes it out as Go source.
package main

import (
	"os"
)

// Build information injected via ldflags at build time.
var version = "dev"

func main() {
	a := newApp(os.Stdout, os.Stderr)
	if err := a.execute(os.Args[1:]); err != nil {
		a.reportError(err)
		os.Exit(1)
	}
}
