package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Shopify/ruvy/internal/engine"
)

// requireEngine skips unless RUVY_ENGINE names an engine made by cmd/ruvy-engine, which needs a libruby reactor.
func requireEngine(t *testing.T) {
	if os.Getenv(engine.EnvVar) == "" {
		t.Skip(engine.EnvVar + " is not set")
	}
}

// buildRuby builds script with the engine named by RUVY_ENGINE, returning the CLI result and the module path.
func buildRuby(t *testing.T, script string, preload map[string]string) (int, string, string) {
	dir := t.TempDir()
	input := writeFile(t, dir, "index.rb", []byte(script))
	output := filepath.Join(dir, "index.wasm")

	args := []string{"-o", output}
	if preload != nil {
		preloadDir := filepath.Join(dir, "prelude")
		require.NoError(t, os.Mkdir(preloadDir, 0o700))
		for name, src := range preload {
			writeFile(t, preloadDir, name, []byte(src))
		}
		args = append(args, "--preload", preloadDir)
	}
	exitCode, _, stdErr := runMain(t, "", append(args, input)...)
	return exitCode, stdErr, output
}

func TestRuby_HelloWorld(t *testing.T) {
	requireEngine(t)

	exitCode, stdErr, output := buildRuby(t, `puts "Hello world"`, nil)
	require.Equal(t, 0, exitCode, stdErr)

	exitCode, stdOut, stdErr := runMain(t, "", "run", output)
	require.Equal(t, 0, exitCode, stdErr)
	require.Equal(t, "Hello world\n", stdOut)
}

func TestRuby_PreloadAndStdin(t *testing.T) {
	requireEngine(t)

	exitCode, stdErr, output := buildRuby(t,
		"input = $stdin.gets\nputs({discount_input: input, value: DISCOUNT}.inspect)\n",
		map[string]string{"discount.rb": "DISCOUNT = 100.0\n"})
	require.Equal(t, 0, exitCode, stdErr)

	exitCode, stdOut, stdErr := runMain(t, "this is my input", "run", output)
	require.Equal(t, 0, exitCode, stdErr)
	require.Equal(t, "{:discount_input=>\"this is my input\", :value=>100.0}\n", stdOut)
}

func TestRuby_PreloadError(t *testing.T) {
	requireEngine(t)

	exitCode, stdErr, output := buildRuby(t, `puts "unreachable"`,
		map[string]string{"error.rb": "raise 'intentional preload error'\n"})
	require.NotEqual(t, 0, exitCode)
	require.Contains(t, stdErr, "intentional preload error")
	require.NoFileExists(t, output)
}

func TestRuby_RuntimeError(t *testing.T) {
	requireEngine(t)

	// The script is only evaluated when the module runs, so the build succeeds.
	exitCode, stdErr, output := buildRuby(t, `raise 'This is a runtime error'`, nil)
	require.Equal(t, 0, exitCode, stdErr)

	exitCode, _, stdErr = runMain(t, "", "run", output)
	require.NotEqual(t, 0, exitCode)
	require.Contains(t, stdErr, "This is a runtime error")
}

func TestRuby_Deterministic(t *testing.T) {
	requireEngine(t)

	const script = "puts [1, 2, 3].sum\n"
	_, _, output1 := buildRuby(t, script, nil)
	_, _, output2 := buildRuby(t, script, nil)

	for _, output := range []string{output1, output2} {
		exitCode, stdOut, stdErr := runMain(t, "", "run", output)
		require.Equal(t, 0, exitCode, stdErr)
		require.Equal(t, "6\n", stdOut)
	}
}
