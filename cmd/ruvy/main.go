// Command ruvy compiles a Ruby script into a self-contained WebAssembly module.
//
//	ruvy --preload prelude -o app.wasm app.rb
//	ruvy run app.wasm
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tetratelabs/wazero/experimental/logging"
	"github.com/urfave/cli/v3"

	"github.com/Shopify/ruvy/internal/version"
)

func main() {
	doMain(os.Args, os.Stdin, os.Stdout, os.Stderr, os.Exit)
}

// doMain is separated out for the purpose of unit testing. It always ends by calling exit.
func doMain(args []string, stdIn io.Reader, stdOut io.Writer, stdErr logging.Writer, exit func(code int)) {
	app := newApp(stdIn, stdOut, stdErr)

	if err := app.Run(context.Background(), args); err != nil {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			if msg := err.Error(); msg != "" {
				fmt.Fprintln(stdErr, msg)
			}
			exit(exitErr.ExitCode())
			return
		}
		fmt.Fprintln(stdErr, err)
		exit(1)
		return
	}
	exit(0)
}

func newApp(stdIn io.Reader, stdOut io.Writer, stdErr logging.Writer) *cli.Command {
	return &cli.Command{
		Name:      "ruvy",
		Usage:     "Compiles a Ruby script into a WebAssembly module",
		ArgsUsage: "<path to Ruby file>",
		Version:   version.Get(),
		Reader:    stdIn,
		Writer:    stdOut,
		ErrWriter: stdErr,
		// Errors are printed and mapped to exit codes by doMain.
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "preload",
				Usage: "Directory of Ruby files to evaluate before the script",
				Local: true,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Path of the generated module (default: " + defaultOutput + ")",
				Local:   true,
			},
			&cli.StringFlag{
				Name:  "engine",
				Usage: "Path of the Ruby engine module (default: $RUVY_ENGINE or the embedded engine)",
				Local: true,
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Maximum time the engine may take to initialize, such as 30s",
				Local: true,
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path of a TOML configuration file (default: ./ruvy.toml if present)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "One of trace, debug, info, warn or error (default: info)",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "One of text or json (default: text)",
			},
			cacheDirFlag(),
			hostLoggingFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return doBuild(ctx, cmd, stdOut, stdErr)
		},
		Commands: []*cli.Command{
			runCommand(stdIn, stdOut, stdErr),
			inspectCommand(stdOut),
			{
				Name:  "version",
				Usage: "Displays the version of ruvy and the wazero it runs engines with",
				Action: func(context.Context, *cli.Command) error {
					fmt.Fprintf(stdOut, "ruvy %s (wazero %s)\n", version.Get(), version.Wazero())
					return nil
				},
			},
		},
	}
}
