// Package engine locates the Ruby engine that ruvy snapshots: a libruby reactor with the hooks added by cmd/ruvy-engine.
package engine

import (
	"errors"
	"fmt"
	"os"
)

// EnvVar names the engine when neither a flag nor the configuration file does.
const EnvVar = "RUVY_ENGINE"

// ErrNotFound is returned by Load when no path is given and the binary has no embedded engine.
var ErrNotFound = errors.New("no engine: pass --engine, set engine in ruvy.toml or set " + EnvVar)

// Embedded reports whether this binary was built with -tags ruvy_embed.
func Embedded() bool {
	return len(embedded) > 0
}

// Load returns the engine at path, or the embedded engine when path is empty.
func Load(path string) ([]byte, error) {
	if path == "" {
		if Embedded() {
			return embedded, nil
		}
		return nil, ErrNotFound
	}
	bin, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading engine: %w", err)
	}
	return bin, nil
}

// Path returns the first non-empty of the flag value, the configured value and EnvVar.
func Path(flag, configured string, lookupEnv func(string) (string, bool)) string {
	if flag != "" {
		return flag
	}
	if configured != "" {
		return configured
	}
	if v, ok := lookupEnv(EnvVar); ok {
		return v
	}
	return ""
}
