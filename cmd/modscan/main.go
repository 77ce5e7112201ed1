package main

import (
	"os"

	"modscan/internal/ui/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
