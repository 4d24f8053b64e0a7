package main

import (
	"os"

	"github.com/tbrossard/evtwin/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
