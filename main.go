package main

import (
	"os"

	"github.com/heathj/mashtml/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
