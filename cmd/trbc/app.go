// Package trbc wires the compiler façade (package compiler), the config
// loader (internal/config), and the declaration cache (internal/decls)
// into a urfave/cli/v3 command tree, exactly as the teacher's own
// main.go wires its compiler.Compiler into cli.Command/cli.Command.Run.
// This surface is documented as external to the compiler core (spec
// §1), but still ships as the repository's entry point.
package trbc

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/trb-lang/trbc/compiler"
)

var version = "v0.1.0"

// New builds the root "trbc" command tree.
func New() *cli.Command {
	return &cli.Command{
		Name:                   "trbc",
		Usage:                  "Compiler for the trb language: Ruby runtime + RBS signatures",
		Version:                version,
		UseShortOptionHandling: true,
		Commands: []*cli.Command{
			{
				Name:      "build",
				Usage:     "Compile one or more files, writing runtime and signature output",
				ArgsUsage: "[path...]",
				Action:    buildAction,
			},
			{
				Name:      "emit",
				Usage:     "Print the generated Ruby runtime source for a file",
				ArgsUsage: "<path>",
				Action:    emitAction,
			},
			{
				Name:      "check",
				Usage:     "Report diagnostics for a file without writing any output",
				ArgsUsage: "<path>",
				Action:    checkAction,
			},
			{
				Name:      "watch",
				Usage:     "Recompile a file whenever it changes",
				ArgsUsage: "<path>",
				Action:    watchAction,
			},
		},
	}
}

// Run is the process entry point main.go calls.
func Run(args []string) int {
	if err := New().Run(context.Background(), args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func newCompiler() (*compiler.Compiler, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return compiler.New(cfg), nil
}
