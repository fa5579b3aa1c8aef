package main

import (
	"fmt"
	"os"

	"github.com/lazypower/lethe/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "lethe: %v\n", err)
		os.Exit(1)
	}
}
