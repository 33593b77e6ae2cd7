// Command clauserisk analyzes legal contracts for clause-level IP and
// obligation risk.
package main

import (
	"fmt"
	"os"

	"github.com/ppiankov/clauserisk/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
