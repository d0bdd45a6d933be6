package main

import (
	"os"

	"github.com/okutan/studia/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
