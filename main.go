package main

import (
	"os"

	"github.com/sabaqlab/sabaq/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
