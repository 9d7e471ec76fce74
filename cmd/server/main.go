package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
)

// Version is set at build time.
var Version = "dev"

func main() {
	root := newRootCmd()
	root.Version = Version
	if err := fang.Execute(context.Background(), root); err != nil {
		os.Exit(1)
	}
}
