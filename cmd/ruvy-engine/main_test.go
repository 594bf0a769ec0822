package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Shopify/ruvy/internal/ruby"
	"github.com/Shopify/ruvy/internal/testing/guestmod"
)

func runMain(t *testing.T, args ...string) (int, string) {
	t.Helper()

	exitCode := -1
	stdErr := &bytes.Buffer{}
	doMain(append([]string{"ruvy-engine"}, args...), &bytes.Buffer{}, stdErr, func(code int) {
		exitCode = code
	})
	return exitCode, stdErr.String()
}

func TestInject(t *testing.T) {
	dir := t.TempDir()
	libruby := guestmod.LibRuby(0, 0).Encode()
	input := filepath.Join(dir, "libruby.wasm")
	require.NoError(t, os.WriteFile(input, libruby, 0o600))
	output := filepath.Join(dir, "engine.wasm")

	exitCode, stdErr := runMain(t, "-o", output, input)
	require.Equal(t, 0, exitCode, stdErr)

	expected, err := ruby.Inject(libruby)
	require.NoError(t, err)
	actual, err := os.ReadFile(output)
	require.NoError(t, err)
	require.Equal(t, expected, actual)
}

func TestInject_DefaultOutput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "libruby.wasm")
	require.NoError(t, os.WriteFile(input, guestmod.LibRuby(0, 0).Encode(), 0o600))
	t.Chdir(dir)

	exitCode, stdErr := runMain(t, input)
	require.Equal(t, 0, exitCode, stdErr)
	require.FileExists(t, filepath.Join(dir, defaultOutput))
}

func TestInject_Errors(t *testing.T) {
	dir := t.TempDir()
	engine := filepath.Join(dir, "engine.wasm")
	require.NoError(t, os.WriteFile(engine, guestmod.Hello().Encode(), 0o600))

	tests := []struct {
		name           string
		args           []string
		expectedStdErr string
	}{
		{
			name:           "no input",
			expectedStdErr: "expected one path to a libruby reactor\n",
		},
		{
			name:           "unreadable input",
			args:           []string{filepath.Join(dir, "missing.wasm")},
			expectedStdErr: "error reading libruby reactor: ",
		},
		{
			name:           "already an engine",
			args:           []string{"-o", filepath.Join(dir, "out.wasm"), engine},
			expectedStdErr: "error adding hooks to " + engine + `: hook already exported: "wizer.initialize"` + "\n",
		},
	}

	for _, tt := range tests {
		tc := tt

		t.Run(tc.name, func(t *testing.T) {
			exitCode, stdErr := runMain(t, tc.args...)
			require.Equal(t, 1, exitCode)
			require.Contains(t, stdErr, tc.expectedStdErr)
		})
	}
}
