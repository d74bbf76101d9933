package main

import (
	"os"

	"github.com/flowtoy/flowtoy/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
