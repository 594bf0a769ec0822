package guest

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"slices"
)

// Adapter lifecycle states.
const (
	StateUninitialized = "uninitialized"
	StateInitializing  = "initializing"
	StateInitialized   = "initialized"
	StateEvaluated     = "evaluated"
	StateTornDown      = "torn down"
	StateFailed        = "failed" // terminal, for diagnostics
)

// AdapterTransitions defines the valid state transitions of an Adapter. There is no way back to an earlier state.
var AdapterTransitions = map[string][]string{
	StateUninitialized: {StateInitializing},
	StateInitializing:  {StateInitialized, StateFailed},
	StateInitialized:   {StateEvaluated},
	StateEvaluated:     {StateTornDown, StateFailed},
	StateTornDown:      {},
	StateFailed:        {},
}

// Adapter implements the initialize and main hooks of the engine on top of an Interpreter.
//
// Initialize runs in the instance that gets snapshotted. Main runs in a fresh instance of the snapshot, where the
// adapter is found in the state Initialize left it in.
type Adapter struct {
	rt     *Runtime
	staged stagedSlot
	state  string

	stdin     io.Reader
	stderr    io.Writer
	lookupEnv func(string) (string, bool)
	dirFS     func(dir string) fs.FS
	logger    *slog.Logger
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithStdin sets where the primary script is read from. Defaults to os.Stdin.
func WithStdin(r io.Reader) AdapterOption {
	return func(a *Adapter) { a.stdin = r }
}

// WithStderr sets where diagnostics are written. Defaults to os.Stderr.
func WithStderr(w io.Writer) AdapterOption {
	return func(a *Adapter) { a.stderr = w }
}

// WithLookupEnv sets how PreloadPathEnv is read. Defaults to os.LookupEnv.
func WithLookupEnv(lookupEnv func(string) (string, bool)) AdapterOption {
	return func(a *Adapter) { a.lookupEnv = lookupEnv }
}

// WithDirFS sets how the preload directory is opened. Defaults to os.DirFS.
func WithDirFS(dirFS func(dir string) fs.FS) AdapterOption {
	return func(a *Adapter) { a.dirFS = dirFS }
}

// WithLogger sets the logger. Defaults to discarding.
func WithLogger(logger *slog.Logger) AdapterOption {
	return func(a *Adapter) { a.logger = logger }
}

// NewAdapter returns an uninitialized adapter driving interp.
func NewAdapter(interp Interpreter, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		rt:        NewRuntime(interp),
		state:     StateUninitialized,
		stdin:     os.Stdin,
		stderr:    os.Stderr,
		lookupEnv: os.LookupEnv,
		dirFS:     os.DirFS,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// State returns the lifecycle state.
func (a *Adapter) State() string {
	return a.state
}

func (a *Adapter) transition(op, to string) error {
	if !slices.Contains(AdapterTransitions[a.state], to) {
		return &StateError{Op: op, State: a.state}
	}
	a.logger.Debug("adapter state change", "from", a.state, "to", to)
	a.state = to
	return nil
}

// Initialize brings up the interpreter, evaluates the preload files and stages the primary script read from stdin.
// A failure is also written to stderr.
func (a *Adapter) Initialize() (err error) {
	if err = a.transition("initialize", StateInitializing); err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = a.transition("fail", StateFailed)
			fmt.Fprintf(a.stderr, "ruvy: %v\n", err)
			return
		}
		err = a.transition("finish initializing", StateInitialized)
	}()

	if err = a.rt.Start(); err != nil {
		return fmt.Errorf("start interpreter: %w", err)
	}

	preloadPath, ok := a.lookupEnv(PreloadPathEnv)
	if ok && preloadPath != "" {
		if err = Preload(a.rt, a.dirFS(preloadPath), preloadPath, a.logger); err != nil {
			return err
		}
	}

	script, err := io.ReadAll(a.stdin)
	if err != nil {
		return fmt.Errorf("%w: read stdin: %v", ErrNoScript, err)
	}
	return a.staged.stage(StagedInput{Script: string(script), PreloadPath: preloadPath})
}

// Main evaluates the staged script and tears the interpreter down, returning the exit code of the program. An
// exception in the script is written to stderr and results in exit code 1. Errors are fatal.
func (a *Adapter) Main() (int, error) {
	if err := a.transition("run main", StateEvaluated); err != nil {
		return 0, err
	}
	in, err := a.staged.load()
	if err != nil {
		_ = a.transition("fail", StateFailed)
		return 0, err
	}

	exitCode := 0
	if _, err = a.rt.Eval(in.Script); err != nil {
		fmt.Fprintln(a.stderr, err)
		exitCode = 1
	}

	if err = a.rt.Shutdown(); err != nil {
		_ = a.transition("fail", StateFailed)
		return exitCode, err
	}
	return exitCode, a.transition("tear down", StateTornDown)
}
