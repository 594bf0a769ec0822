package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/experimental"
	"github.com/tetratelabs/wazero/experimental/logging"
	"github.com/urfave/cli/v3"

	"github.com/Shopify/ruvy/internal/config"
	internallogging "github.com/Shopify/ruvy/internal/logging"
)

func cacheDirFlag() cli.Flag {
	return &cli.StringFlag{
		Name: "cachedir",
		Usage: "Writeable directory for native code compiled from wasm. " +
			"Contents are re-used for the same version of wazero.",
	}
}

func hostLoggingFlag() cli.Flag {
	return &cli.StringSliceFlag{
		Name: "hostlogging",
		Usage: "A comma-separated list of host function scopes to log to stderr. " +
			"This may be specified multiple times. Supported values: all,clock,filesystem,memory,poll,proc,random,sock",
	}
}

// parseLogScopes turns the values of the hostlogging flag into scopes.
func parseLogScopes(values []string) (scopes logging.LogScopes, err error) {
	for _, v := range values {
		for _, s := range strings.Split(v, ",") {
			switch strings.TrimSpace(s) {
			case "":
				continue
			case "all":
				scopes |= logging.LogScopeAll
			case "clock":
				scopes |= logging.LogScopeClock
			case "filesystem":
				scopes |= logging.LogScopeFilesystem
			case "memory":
				scopes |= logging.LogScopeMemory
			case "poll":
				scopes |= logging.LogScopePoll
			case "proc":
				scopes |= logging.LogScopeProc
			case "random":
				scopes |= logging.LogScopeRandom
			case "sock":
				scopes |= logging.LogScopeSock
			default:
				return 0, fmt.Errorf("invalid hostlogging: %q is not a log scope", s)
			}
		}
	}
	return
}

// maybeHostLogging logs calls to host functions in scopes to stdErr, for the runtimes created with the returned ctx.
func maybeHostLogging(ctx context.Context, cmd *cli.Command, stdErr logging.Writer) (context.Context, error) {
	scopes, err := parseLogScopes(cmd.StringSlice("hostlogging"))
	if err != nil {
		return nil, err
	}
	if scopes != 0 {
		ctx = experimental.WithFunctionListenerFactory(ctx, logging.NewHostLoggingListenerFactory(stdErr, scopes))
	}
	return ctx, nil
}

// maybeUseCacheDir returns nil when no directory is set. Otherwise, the caller closes the cache.
func maybeUseCacheDir(dir string) (wazero.CompilationCache, error) {
	if dir == "" {
		return nil, nil
	}
	cache, err := wazero.NewCompilationCacheWithDir(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid cachedir: %w", err)
	}
	return cache, nil
}

// loadConfig reads the file named by the config flag, or ruvy.toml in the working directory when present.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	return cfg, nil
}

// newLogger prefers flags over the configuration file.
func newLogger(cmd *cli.Command, cfg *config.Config, stdErr logging.Writer) (*slog.Logger, error) {
	level := firstNonEmpty(cmd.String("log-level"), cfg.LogLevel, "info")
	format := firstNonEmpty(cmd.String("log-format"), cfg.LogFormat, internallogging.FormatText)
	h, err := internallogging.NewHandler(format, level, stdErr)
	if err != nil {
		return nil, err
	}
	return slog.New(h), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
