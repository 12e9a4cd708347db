package main

import (
	"os"

	"github.com/odyssey/rulehub/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
