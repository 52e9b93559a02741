package main

import (
	"os"

	"github.com/flavorlab/nutrigraph/cmd/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
