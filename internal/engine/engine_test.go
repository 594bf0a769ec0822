package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPath(t *testing.T) {
	env := func(v string) func(string) (string, bool) {
		return func(key string) (string, bool) {
			require.Equal(t, EnvVar, key)
			return v, v != ""
		}
	}

	tests := []struct {
		name, flag, configured, env, expected string
	}{
		{name: "none"},
		{name: "env", env: "env.wasm", expected: "env.wasm"},
		{name: "config over env", configured: "config.wasm", env: "env.wasm", expected: "config.wasm"},
		{name: "flag over all", flag: "flag.wasm", configured: "config.wasm", env: "env.wasm", expected: "flag.wasm"},
	}

	for _, tt := range tests {
		tc := tt

		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, Path(tc.flag, tc.configured, env(tc.env)))
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.wasm")
	require.NoError(t, os.WriteFile(path, []byte("\x00asm"), 0o600))

	bin, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, []byte("\x00asm"), bin)

	_, err = Load(filepath.Join(t.TempDir(), "missing.wasm"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_NoPath(t *testing.T) {
	bin, err := Load("")
	if Embedded() {
		require.NoError(t, err)
		require.NotEmpty(t, bin)
	} else {
		require.ErrorIs(t, err, ErrNotFound)
	}
}
