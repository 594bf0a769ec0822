// Command ruvy-engine makes the Ruby engine that ruvy snapshots. Its input is
// a libruby reactor: a wasm32-wasip1 build of libruby, linked with
// -mexec-model=reactor, that exports malloc, ruby_init, ruby_init_loadpath,
// rb_eval_string_protect and ruby_cleanup. The output is the reactor with the
// wizer.initialize and ruvy.main hooks added.
//
//	ruvy-engine -o ruvy_engine.wasm libruby.wasm
//
// To embed the engine in the ruvy command:
//
//	go run ./cmd/ruvy-engine -o internal/engine/ruvy_engine.wasm libruby.wasm
//	go build -tags ruvy_embed ./cmd/ruvy
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/Shopify/ruvy/internal/ruby"
	"github.com/Shopify/ruvy/internal/version"
)

const defaultOutput = "ruvy_engine.wasm"

func main() {
	doMain(os.Args, os.Stdout, os.Stderr, os.Exit)
}

// doMain is separated out for the purpose of unit testing. It always ends by calling exit.
func doMain(args []string, stdOut, stdErr io.Writer, exit func(code int)) {
	app := &cli.Command{
		Name:      "ruvy-engine",
		Usage:     "Adds the ruvy hooks to a libruby reactor",
		ArgsUsage: "<path to libruby reactor>",
		Version:   version.Get(),
		Writer:    stdOut,
		ErrWriter: stdErr,
		// Errors are printed and mapped to exit codes below.
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Path of the engine (default: " + defaultOutput + ")",
				Value:   defaultOutput,
			},
		},
		Action: doInject,
	}

	if err := app.Run(context.Background(), args); err != nil {
		fmt.Fprintln(stdErr, err)
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			exit(exitErr.ExitCode())
			return
		}
		exit(1)
		return
	}
	exit(0)
}

func doInject(_ context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return cli.Exit("expected one path to a libruby reactor", 1)
	}
	input := cmd.Args().First()

	libruby, err := os.ReadFile(input)
	if err != nil {
		return cli.Exit(fmt.Sprintf("error reading libruby reactor: %v", err), 1)
	}
	engine, err := ruby.Inject(libruby)
	if err != nil {
		return cli.Exit(fmt.Sprintf("error adding hooks to %s: %v", input, err), 1)
	}
	if err = os.WriteFile(cmd.String("output"), engine, 0o644); err != nil {
		return cli.Exit(fmt.Sprintf("error writing engine: %v", err), 1)
	}
	return nil
}
