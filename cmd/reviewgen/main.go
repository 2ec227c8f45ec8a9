package main

import (
	"os"

	"github.com/dshills/reviewgen/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
