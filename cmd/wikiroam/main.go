package main

import (
	"fmt"
	"os"

	"wikiroam/internal/cli"
	"wikiroam/pkg/version"
)

func main() {
	if err := cli.Run(version.Version); err != nil {
		fmt.Fprintf(os.Stderr, "wikiroam: %v\n", err)
		os.Exit(1)
	}
}
