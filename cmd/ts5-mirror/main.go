package main

import (
	"os"

	"github.com/vovakirdan/ts5-mirror/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
