package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tetratelabs/wazero/experimental/logging"
	"github.com/urfave/cli/v3"

	"github.com/Shopify/ruvy"
)

func runCommand(stdIn io.Reader, stdOut io.Writer, stdErr logging.Writer) *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Runs a module generated by ruvy",
		ArgsUsage: "<path to wasm file> [--] <wasm args>",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name: "env",
				Usage: "key=value pair of environment variable to expose to the binary. " +
					"Can be specified multiple times.",
			},
			&cli.StringSliceFlag{
				Name: "mount",
				Usage: "filesystem path to expose to the binary in the form of <path>[:<wasm path>][:ro]. " +
					"This may be specified multiple times. When <wasm path> is unset, <path> is used. " +
					"For read-only mounts, append the suffix ':ro'.",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return doRun(ctx, cmd, stdIn, stdOut, stdErr)
		},
	}
}

func doRun(ctx context.Context, cmd *cli.Command, stdIn io.Reader, stdOut io.Writer, stdErr logging.Writer) error {
	if cmd.Args().Len() < 1 {
		return cli.Exit("missing path to wasm file", 1)
	}
	wasmPath := cmd.Args().First()
	wasmArgs := cmd.Args().Tail()
	if len(wasmArgs) > 0 && wasmArgs[0] == "--" {
		wasmArgs = wasmArgs[1:]
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return cli.Exit(err, 1)
	}
	logger, err := newLogger(cmd, cfg, stdErr)
	if err != nil {
		return cli.Exit(err, 1)
	}
	if ctx, err = maybeHostLogging(ctx, cmd, stdErr); err != nil {
		return cli.Exit(err, 1)
	}

	runConfig := ruvy.NewRunConfig().
		WithStdin(stdIn).
		WithStdout(stdOut).
		WithStderr(stdErr).
		WithArgs(append([]string{filepath.Base(wasmPath)}, wasmArgs...)...).
		WithLogger(logger)

	for _, e := range cmd.StringSlice("env") {
		key, value, ok := strings.Cut(e, "=")
		if !ok || key == "" {
			return cli.Exit(fmt.Sprintf("invalid environment variable: %s", e), 1)
		}
		runConfig = runConfig.WithEnv(key, value)
	}

	for _, m := range cmd.StringSlice("mount") {
		if runConfig, err = withMount(runConfig, m); err != nil {
			return cli.Exit(err, 1)
		}
	}

	cache, err := maybeUseCacheDir(firstNonEmpty(cmd.String("cachedir"), cfg.CacheDir))
	if err != nil {
		return cli.Exit(err, 1)
	}
	if cache != nil {
		defer cache.Close(ctx)
		runConfig = runConfig.WithCompilationCache(cache)
	}

	wasm, err := os.ReadFile(wasmPath)
	if err != nil {
		return cli.Exit(fmt.Sprintf("error reading wasm binary: %v", err), 1)
	}

	code, err := ruvy.Run(ctx, wasm, runConfig)
	if err != nil {
		return cli.Exit(fmt.Sprintf("error running wasm binary: %v", err), 1)
	}
	if code != 0 {
		return cli.Exit("", int(code))
	}
	return nil
}

// withMount parses <path>[:<wasm path>][:ro] and validates the host path eagerly.
func withMount(c *ruvy.RunConfig, mount string) (*ruvy.RunConfig, error) {
	if len(mount) == 0 {
		return nil, fmt.Errorf("invalid mount: empty string")
	}

	readOnly := false
	if trimmed := strings.TrimSuffix(mount, ":ro"); trimmed != mount {
		mount = trimmed
		readOnly = true
	}

	var dir, guestPath string
	if clnIdx := strings.LastIndexByte(mount, ':'); clnIdx != -1 {
		dir, guestPath = mount[:clnIdx], mount[clnIdx+1:]
	} else {
		dir = mount
		guestPath = dir
	}
	if guestPath == "" {
		guestPath = "/"
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid mount: path %q invalid: %v", dir, err)
	}
	if stat, err := os.Stat(abs); err != nil {
		return nil, fmt.Errorf("invalid mount: path %q error: %v", abs, err)
	} else if !stat.IsDir() {
		return nil, fmt.Errorf("invalid mount: path %q is not a directory", abs)
	}

	if readOnly {
		return c.WithReadOnlyDirMount(abs, guestPath), nil
	}
	return c.WithDirMount(abs, guestPath), nil
}
