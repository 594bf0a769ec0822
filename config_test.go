package ruvy

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBuildConfig(t *testing.T) {
	var out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&out, nil))

	tests := []struct {
		name     string
		with     func(*BuildConfig) *BuildConfig
		expected func(*BuildConfig)
	}{
		{
			name:     "preload dir",
			with:     func(c *BuildConfig) *BuildConfig { return c.WithPreloadDir("prelude") },
			expected: func(c *BuildConfig) { c.preloadDir = "prelude" },
		},
		{
			name:     "preload guest path",
			with:     func(c *BuildConfig) *BuildConfig { return c.WithPreloadGuestPath("/lib") },
			expected: func(c *BuildConfig) { c.preloadGuestPath = "/lib" },
		},
		{
			name:     "stdout",
			with:     func(c *BuildConfig) *BuildConfig { return c.WithStdout(&out) },
			expected: func(c *BuildConfig) { c.stdout = &out },
		},
		{
			name:     "stderr",
			with:     func(c *BuildConfig) *BuildConfig { return c.WithStderr(nil) },
			expected: func(c *BuildConfig) { c.stderr = nil },
		},
		{
			name: "exports",
			with: func(c *BuildConfig) *BuildConfig { return c.WithInitExport("init").WithMainExport("main") },
			expected: func(c *BuildConfig) {
				c.initExport = "init"
				c.mainExport = "main"
			},
		},
		{
			name:     "timeout",
			with:     func(c *BuildConfig) *BuildConfig { return c.WithTimeout(time.Second) },
			expected: func(c *BuildConfig) { c.timeout = time.Second },
		},
		{
			name:     "logger",
			with:     func(c *BuildConfig) *BuildConfig { return c.WithLogger(logger) },
			expected: func(c *BuildConfig) { c.logger = logger },
		},
	}

	for _, tt := range tests {
		tc := tt

		t.Run(tc.name, func(t *testing.T) {
			input := NewBuildConfig()
			rc := tc.with(input)

			expected := NewBuildConfig()
			tc.expected(expected)
			require.Equal(t, expected, rc)
			// The original wasn't affected
			require.Equal(t, NewBuildConfig(), input)
		})
	}
}

func TestNewBuildConfig_Defaults(t *testing.T) {
	c := NewBuildConfig()
	require.Equal(t, DefaultInitExport, c.initExport)
	require.Equal(t, DefaultMainExport, c.mainExport)
	require.Empty(t, c.preloadGuestPath)
	require.Empty(t, c.preloadDir)
	require.Zero(t, c.timeout)
}

func TestBuildConfig_preloadMount(t *testing.T) {
	dir := t.TempDir()
	abs, err := filepath.Abs(dir)
	require.NoError(t, err)

	hostDir, guestPath, err := NewBuildConfig().WithPreloadDir(dir).preloadMount()
	require.NoError(t, err)
	require.Equal(t, abs, hostDir)
	require.Equal(t, guestDirPath(abs), guestPath)
	require.True(t, strings.HasPrefix(guestPath, "/"), guestPath)

	// Relative directories resolve against the working directory.
	wd, err := os.Getwd()
	require.NoError(t, err)
	hostDir, guestPath, err = NewBuildConfig().WithPreloadDir("prelude").preloadMount()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(wd, "prelude"), hostDir)
	require.Equal(t, guestDirPath(filepath.Join(wd, "prelude")), guestPath)

	_, guestPath, err = NewBuildConfig().WithPreloadDir(dir).WithPreloadGuestPath("/preload").preloadMount()
	require.NoError(t, err)
	require.Equal(t, "/preload", guestPath)
}

func TestGuestDirPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		require.Equal(t, "/Users/me/prelude", guestDirPath(`C:\Users\me\prelude`))
	} else {
		require.Equal(t, "/home/me/prelude", guestDirPath("/home/me/prelude"))
	}
}

func TestRunConfig(t *testing.T) {
	base := NewRunConfig().WithArgs("app").WithEnv("A", "1")

	c := base.WithEnv("B", "2").WithEnv("A", "3").WithArgs("app", "x")
	require.Equal(t, []string{"A", "3", "B", "2"}, c.environ)
	require.Equal(t, []string{"app", "x"}, c.args)

	// The original wasn't affected
	require.Equal(t, []string{"A", "1"}, base.environ)
	require.Equal(t, []string{"app"}, base.args)

	c = base.WithDirMount("/tmp/out", "/out").WithReadOnlyDirMount("/tmp/in", "/in")
	require.Equal(t, []mount{
		{hostDir: "/tmp/out", guestPath: "/out"},
		{hostDir: "/tmp/in", guestPath: "/in", readOnly: true},
	}, c.mounts)
	require.Empty(t, base.mounts)
}
