// Package ruvy builds self-contained WebAssembly programs out of Ruby scripts.
//
// The Ruby engine is itself a WebAssembly module. Build starts it, lets it load the script and any preload files, then
// snapshots the initialized memory and globals into a new module. Running that module only evaluates the script: the
// interpreter boot and preloads already happened at build time.
//
// Ex.
//
//	engine, _ := os.ReadFile("ruvy_engine.wasm")
//	mod, err := ruvy.Build(ctx, engine, `puts "Hello world"`, ruvy.NewBuildConfig().WithPreloadDir("prelude"))
//	code, err := ruvy.Run(ctx, mod, ruvy.NewRunConfig().WithStdout(os.Stdout))
package ruvy

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/gofrs/uuid/v5"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/Shopify/ruvy/internal/guest"
	"github.com/Shopify/ruvy/internal/snapshot"
)

// Build initializes the engine with script and returns the snapshot of it, or a BuildError.
//
// The script is given to the engine on stdin. When a preload directory is configured, the engine sees it read-only at
// its absolute host path, or the configured guest path, announced by the RUVY_PRELOAD_PATH environment variable.
// Nothing else of the host is visible, and the clocks and random source are deterministic: building the same inputs
// twice gives the same bytes.
//
// Build is safe for concurrent use: each call uses its own runtime.
func Build(ctx context.Context, engine []byte, script string, config *BuildConfig) ([]byte, error) {
	if config == nil {
		config = NewBuildConfig()
	}
	logger := config.logger.With(slog.String("build", newBuildID()))

	if config.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.timeout)
		defer cancel()
	}

	plan, err := snapshot.Instrument(engine, snapshot.Options{InitExport: config.initExport, MainExport: config.mainExport})
	if err != nil {
		return nil, &BuildError{Op: "parse", Err: err}
	}
	logger.Debug("instrumented engine", "size", len(engine), "globals", plan.Globals())

	var preload *mount
	if config.preloadDir != "" {
		hostDir, guestPath, err := config.preloadMount()
		if err == nil {
			err = checkDir(hostDir)
		}
		if err != nil {
			return nil, &BuildError{Op: "preload", Err: err}
		}
		preload = &mount{hostDir: hostDir, guestPath: guestPath, readOnly: true}
	}

	state, err := initialize(ctx, plan, script, preload, config, logger)
	if err != nil {
		return nil, err
	}

	img, err := plan.Emit(state)
	if err != nil {
		return nil, &BuildError{Op: "emit", Err: err}
	}
	logger.Debug("emitted module", "size", len(img.Binary), "segments", img.Segments)
	return img.Binary, nil
}

// initialize runs the initialization hook of a fresh instance of the instrumented engine and captures its state. The
// instance and its runtime are closed before returning.
func initialize(ctx context.Context, plan *snapshot.Plan, script string, preload *mount, config *BuildConfig, logger *slog.Logger) (*snapshot.State, error) {
	rConfig := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if config.cache != nil {
		rConfig = rConfig.WithCompilationCache(config.cache)
	}
	r := wazero.NewRuntimeWithConfig(ctx, rConfig)
	defer r.Close(context.Background())

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, r); err != nil {
		return nil, &BuildError{Op: "instantiate", Err: err}
	}

	compiled, err := r.CompileModule(ctx, plan.Instrumented)
	if err != nil {
		return nil, &BuildError{Op: "compile", Err: err}
	}

	// "_initialize" is how reactor modules, such as a c-shared Go build, set up their runtime.
	mConfig := wazero.NewModuleConfig().
		WithStdin(strings.NewReader(script)).
		WithStartFunctions("_initialize")
	if config.stdout != nil {
		mConfig = mConfig.WithStdout(config.stdout)
	}
	if config.stderr != nil {
		mConfig = mConfig.WithStderr(config.stderr)
	}
	if preload != nil {
		mConfig = mConfig.
			WithFSConfig(wazero.NewFSConfig().WithReadOnlyDirMount(preload.hostDir, preload.guestPath)).
			WithEnv(guest.PreloadPathEnv, preload.guestPath)
		logger.Debug("mounted preload directory", "dir", preload.hostDir, "path", preload.guestPath)
	}

	mod, err := r.InstantiateModule(ctx, compiled, mConfig)
	if err != nil {
		return nil, &BuildError{Op: "instantiate", Err: err}
	}

	logger.Debug("calling initialization hook", "export", config.initExport)
	if _, err = mod.ExportedFunction(config.initExport).Call(ctx); err != nil {
		return nil, &BuildError{Op: "initialize", Err: err}
	}

	state, err := plan.Capture(mod)
	if err != nil {
		return nil, &BuildError{Op: "capture", Err: err}
	}
	logger.Debug("captured state", "pages", state.Pages(), "globals", len(state.Globals))
	return state, nil
}

func checkDir(dir string) error {
	st, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !st.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

// newBuildID correlates the log lines of one Build.
func newBuildID() string {
	id, err := uuid.NewV4()
	if err != nil {
		return "unknown"
	}
	return id.String()
}
