package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/tetratelabs/wazero/experimental/logging"
	"github.com/urfave/cli/v3"

	"github.com/Shopify/ruvy"
	"github.com/Shopify/ruvy/internal/engine"
)

const defaultOutput = "index.wasm"

// doBuild compiles the Ruby file named by the first argument. Flags take precedence over ruvy.toml.
func doBuild(ctx context.Context, cmd *cli.Command, stdOut io.Writer, stdErr logging.Writer) error {
	if cmd.Args().Len() < 1 {
		return cli.Exit("missing path to Ruby file", 1)
	}
	if cmd.Args().Len() > 1 {
		return cli.Exit(fmt.Sprintf("unexpected arguments after %s: %v", cmd.Args().First(), cmd.Args().Tail()), 1)
	}
	input := cmd.Args().First()

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

	script, err := os.ReadFile(input)
	if err != nil {
		return cli.Exit(fmt.Sprintf("error reading Ruby file %s: %v", input, err), 1)
	}

	enginePath := engine.Path(cmd.String("engine"), cfg.Engine, os.LookupEnv)
	bin, err := engine.Load(enginePath)
	if err != nil {
		return cli.Exit(err, 1)
	}
	logger.Debug("loaded engine", "path", enginePath, "size", len(bin))

	buildConfig := ruvy.NewBuildConfig().
		WithStdout(stdOut).
		WithStderr(stdErr).
		WithLogger(logger)
	if preload := firstNonEmpty(cmd.String("preload"), cfg.Preload); preload != "" {
		buildConfig = buildConfig.WithPreloadDir(preload)
	}
	if cmd.IsSet("timeout") {
		buildConfig = buildConfig.WithTimeout(cmd.Duration("timeout"))
	} else if cfg.Timeout > 0 {
		buildConfig = buildConfig.WithTimeout(time.Duration(cfg.Timeout))
	}
	cache, err := maybeUseCacheDir(firstNonEmpty(cmd.String("cachedir"), cfg.CacheDir))
	if err != nil {
		return cli.Exit(err, 1)
	}
	if cache != nil {
		defer cache.Close(ctx)
		buildConfig = buildConfig.WithCompilationCache(cache)
	}

	mod, err := ruvy.Build(ctx, bin, string(script), buildConfig)
	if err != nil {
		return cli.Exit(fmt.Sprintf("error building module: %v", err), 1)
	}

	output := firstNonEmpty(cmd.String("output"), cfg.Output, defaultOutput)
	if err = os.WriteFile(output, mod, 0o644); err != nil {
		return cli.Exit(fmt.Sprintf("error writing module: %v", err), 1)
	}
	logger.Debug("wrote module", "path", output, "size", len(mod))
	return nil
}
