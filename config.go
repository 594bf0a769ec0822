package ruvy

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tetratelabs/wazero"
)

const (
	// DefaultInitExport is the engine export Build calls to initialize the interpreter before the snapshot.
	DefaultInitExport = "wizer.initialize"
	// DefaultMainExport is the engine export the generated module runs as "_start".
	DefaultMainExport = "ruvy.main"
)

// BuildConfig controls how Build initializes and snapshots the engine. Use NewBuildConfig to create one.
//
// Note: BuildConfig is immutable. Each WithXXX function returns a new instance including the corresponding change.
type BuildConfig struct {
	preloadDir       string
	preloadGuestPath string
	stdout           io.Writer
	stderr           io.Writer
	initExport       string
	mainExport       string
	timeout          time.Duration
	cache            wazero.CompilationCache
	logger           *slog.Logger
}

// NewBuildConfig returns a BuildConfig with no preload directory, where the engine writes to the process's stdout and
// stderr while it initializes.
func NewBuildConfig() *BuildConfig {
	return &BuildConfig{
		stdout:           os.Stdout,
		stderr:           os.Stderr,
		initExport:       DefaultInitExport,
		mainExport:       DefaultMainExport,
		logger:           slog.New(slog.DiscardHandler),
	}
}

// clone ensures all fields are copied even if nil.
func (c *BuildConfig) clone() *BuildConfig {
	ret := *c
	return &ret
}

// WithPreloadDir mounts the host directory read-only into the engine, which evaluates each file in it before the
// script. Defaults to none.
func (c *BuildConfig) WithPreloadDir(dir string) *BuildConfig {
	ret := c.clone()
	ret.preloadDir = dir
	return ret
}

// WithPreloadGuestPath sets where the preload directory is mounted. Defaults to the absolute host path of the
// directory, so errors the engine reports name the files as the user knows them. A fixed path makes the snapshot
// independent of where the directory lives on the host.
func (c *BuildConfig) WithPreloadGuestPath(path string) *BuildConfig {
	ret := c.clone()
	ret.preloadGuestPath = path
	return ret
}

// WithStdout sets where the engine's stdout goes during Build. A nil writer discards it.
func (c *BuildConfig) WithStdout(stdout io.Writer) *BuildConfig {
	ret := c.clone()
	ret.stdout = stdout
	return ret
}

// WithStderr sets where the engine's stderr goes during Build. A nil writer discards it.
//
// Preload and script errors are written here, so discarding it hides why a Build failed.
func (c *BuildConfig) WithStderr(stderr io.Writer) *BuildConfig {
	ret := c.clone()
	ret.stderr = stderr
	return ret
}

// WithInitExport overrides DefaultInitExport.
func (c *BuildConfig) WithInitExport(name string) *BuildConfig {
	ret := c.clone()
	ret.initExport = name
	return ret
}

// WithMainExport overrides DefaultMainExport.
func (c *BuildConfig) WithMainExport(name string) *BuildConfig {
	ret := c.clone()
	ret.mainExport = name
	return ret
}

// WithTimeout bounds how long the engine may take to initialize. Zero, the default, means no limit beyond the context
// passed to Build.
func (c *BuildConfig) WithTimeout(timeout time.Duration) *BuildConfig {
	ret := c.clone()
	ret.timeout = timeout
	return ret
}

// WithCompilationCache reuses compiled engine code across builds, for example one from wazero.NewCompilationCacheWithDir.
func (c *BuildConfig) WithCompilationCache(cache wazero.CompilationCache) *BuildConfig {
	ret := c.clone()
	ret.cache = cache
	return ret
}

// WithLogger sets the logger for build progress. Defaults to discarding everything.
func (c *BuildConfig) WithLogger(logger *slog.Logger) *BuildConfig {
	ret := c.clone()
	ret.logger = logger
	return ret
}

// preloadMount returns the absolute preload directory and the path the engine sees it at.
func (c *BuildConfig) preloadMount() (hostDir, guestPath string, err error) {
	if hostDir, err = filepath.Abs(c.preloadDir); err != nil {
		return "", "", err
	}
	if guestPath = c.preloadGuestPath; guestPath == "" {
		guestPath = guestDirPath(hostDir)
	}
	return hostDir, guestPath, nil
}

// guestDirPath converts an absolute host path to a WASI path, which has no volume name and uses forward slashes.
func guestDirPath(abs string) string {
	return filepath.ToSlash(strings.TrimPrefix(abs, filepath.VolumeName(abs)))
}

type mount struct {
	hostDir, guestPath string
	readOnly           bool
}

// RunConfig controls how Run executes a generated module. Use NewRunConfig to create one.
//
// Unlike BuildConfig, the module sees the real clocks and a cryptographic random source, as a normal program would.
//
// Note: RunConfig is immutable. Each WithXXX function returns a new instance including the corresponding change.
type RunConfig struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	args   []string
	// environ is pair-indexed: key then value.
	environ []string
	mounts  []mount
	cache   wazero.CompilationCache
	logger  *slog.Logger
}

// NewRunConfig returns a RunConfig with no stdin, discarded output, no arguments, environment or mounts.
func NewRunConfig() *RunConfig {
	return &RunConfig{logger: slog.New(slog.DiscardHandler)}
}

// clone ensures all fields are copied even if nil.
func (c *RunConfig) clone() *RunConfig {
	ret := *c
	ret.args = append([]string(nil), c.args...)
	ret.environ = append([]string(nil), c.environ...)
	ret.mounts = append([]mount(nil), c.mounts...)
	return &ret
}

// WithStdin sets the module's stdin. Defaults to returning io.EOF.
func (c *RunConfig) WithStdin(stdin io.Reader) *RunConfig {
	ret := c.clone()
	ret.stdin = stdin
	return ret
}

// WithStdout sets the module's stdout. Defaults to discarding it.
func (c *RunConfig) WithStdout(stdout io.Writer) *RunConfig {
	ret := c.clone()
	ret.stdout = stdout
	return ret
}

// WithStderr sets the module's stderr. Defaults to discarding it.
func (c *RunConfig) WithStderr(stderr io.Writer) *RunConfig {
	ret := c.clone()
	ret.stderr = stderr
	return ret
}

// WithArgs sets the argument vector. Like os.Args, the first element is conventionally the program name.
func (c *RunConfig) WithArgs(args ...string) *RunConfig {
	ret := c.clone()
	ret.args = args
	return ret
}

// WithEnv sets an environment variable, replacing any earlier value for the same key.
func (c *RunConfig) WithEnv(key, value string) *RunConfig {
	ret := c.clone()
	for i := 0; i < len(ret.environ); i += 2 {
		if ret.environ[i] == key {
			ret.environ[i+1] = value
			return ret
		}
	}
	ret.environ = append(ret.environ, key, value)
	return ret
}

// WithDirMount makes the host directory writable by the module at guestPath.
func (c *RunConfig) WithDirMount(hostDir, guestPath string) *RunConfig {
	ret := c.clone()
	ret.mounts = append(ret.mounts, mount{hostDir: hostDir, guestPath: guestPath})
	return ret
}

// WithReadOnlyDirMount is like WithDirMount, except the module cannot change the directory.
func (c *RunConfig) WithReadOnlyDirMount(hostDir, guestPath string) *RunConfig {
	ret := c.clone()
	ret.mounts = append(ret.mounts, mount{hostDir: hostDir, guestPath: guestPath, readOnly: true})
	return ret
}

// WithCompilationCache reuses compiled module code across runs.
func (c *RunConfig) WithCompilationCache(cache wazero.CompilationCache) *RunConfig {
	ret := c.clone()
	ret.cache = cache
	return ret
}

// WithLogger sets the logger for run progress. Defaults to discarding everything.
func (c *RunConfig) WithLogger(logger *slog.Logger) *RunConfig {
	ret := c.clone()
	ret.logger = logger
	return ret
}
