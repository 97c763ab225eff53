package main

import (
	"os"

	"github.com/0xcro3dile/linesearch-go/internal/adapters/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
