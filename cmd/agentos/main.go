package main

import (
	"os"

	"github.com/kurobyte/agentos/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
