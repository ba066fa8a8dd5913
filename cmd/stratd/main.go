package main

import (
	"os"

	"github.com/rustyeddy/stratd/cmd/stratd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
