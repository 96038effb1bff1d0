package main

import (
	"os"

	"github.com/conneroisu/twiglight/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
