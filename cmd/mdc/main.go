package main

import (
	"fmt"
	"os"

	"github.com/cwbudde/machine-dialect/cmd/mdc/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(cmd.ExitCodeFor(err))
	}
}
