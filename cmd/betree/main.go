package main

import (
	"os"

	"github.com/solatis/betree/cmd/betree/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
