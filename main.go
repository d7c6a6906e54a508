package main

import (
	"os"

	"github.com/trb-lang/trbc/cmd/trbc"
)

func main() {
	os.Exit(trbc.Run(os.Args))
}
