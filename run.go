package ruvy

import (
	"context"
	"crypto/rand"
	"errors"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"
)

// Run executes a module produced by Build and returns its exit code.
//
// Exiting, including with a non-zero code, is not an error. An error is returned when the module is invalid, traps or
// is stopped by the context, in which case the exit code is only meaningful if it came from the context.
func Run(ctx context.Context, module []byte, config *RunConfig) (uint32, error) {
	if config == nil {
		config = NewRunConfig()
	}

	rConfig := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if config.cache != nil {
		rConfig = rConfig.WithCompilationCache(config.cache)
	}
	r := wazero.NewRuntimeWithConfig(ctx, rConfig)
	defer r.Close(context.Background())

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, r); err != nil {
		return 0, err
	}

	mConfig := wazero.NewModuleConfig().
		WithArgs(config.args...).
		WithSysWalltime().
		WithSysNanotime().
		WithSysNanosleep().
		WithRandSource(rand.Reader)
	if config.stdin != nil {
		mConfig = mConfig.WithStdin(config.stdin)
	}
	if config.stdout != nil {
		mConfig = mConfig.WithStdout(config.stdout)
	}
	if config.stderr != nil {
		mConfig = mConfig.WithStderr(config.stderr)
	}
	for i := 0; i < len(config.environ); i += 2 {
		mConfig = mConfig.WithEnv(config.environ[i], config.environ[i+1])
	}
	if len(config.mounts) > 0 {
		fsConfig := wazero.NewFSConfig()
		for _, m := range config.mounts {
			if m.readOnly {
				fsConfig = fsConfig.WithReadOnlyDirMount(m.hostDir, m.guestPath)
			} else {
				fsConfig = fsConfig.WithDirMount(m.hostDir, m.guestPath)
			}
		}
		mConfig = mConfig.WithFSConfig(fsConfig)
	}

	config.logger.Debug("running module", "size", len(module), "args", config.args)
	_, err := r.InstantiateWithConfig(ctx, module, mConfig)
	if err == nil {
		return 0, nil
	}
	var exitErr *sys.ExitError
	if errors.As(err, &exitErr) {
		switch code := exitErr.ExitCode(); code {
		case sys.ExitCodeContextCanceled, sys.ExitCodeDeadlineExceeded:
			return code, err
		default:
			config.logger.Debug("module exited", "code", code)
			return code, nil
		}
	}
	return 0, err
}
