package main

import (
	"os"

	"github.com/x0georgiev/gushter/internal/interface/cli"
)

func main() {
	if err := cli.NewRoot().Execute(); err != nil {
		os.Exit(1)
	}
}
