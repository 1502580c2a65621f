package main

import (
	"os"

	"github.com/arloliu/rossdash/cmd/rossdash/cmd"
)

func main() {
	if err := cmd.RootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
