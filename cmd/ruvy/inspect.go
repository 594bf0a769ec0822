package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/Shopify/ruvy/internal/inspect"
)

func inspectCommand(stdOut io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Summarizes the sections, exports, memory and data of a module",
		ArgsUsage: "<path to wasm file>",
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() < 1 {
				return cli.Exit("missing path to wasm file", 1)
			}
			wasmPath := cmd.Args().First()

			wasm, err := os.ReadFile(wasmPath)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error reading wasm binary: %v", err), 1)
			}
			summary, err := inspect.Summarize(wasm)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error decoding wasm binary: %v", err), 1)
			}
			fmt.Fprintln(stdOut, summary.Tree(filepath.Base(wasmPath)))
			return nil
		},
	}
}
