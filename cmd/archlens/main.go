package main

import (
	"os"

	"archlens/internal/ui/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
