package main

import (
	"os"

	"github.com/abhisek/iotlab/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
