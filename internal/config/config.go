// Package config loads the optional ruvy.toml file of the CLI.
//
// Ex.
//
//	output = "app.wasm"
//	preload = "prelude"
//	engine = "ruvy_engine.wasm"
//	log_level = "debug"
//	log_format = "json"
//	cachedir = "/tmp/ruvy-cache"
//	timeout = "30s"
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// DefaultFile is read from the working directory when no file is named.
const DefaultFile = "ruvy.toml"

var (
	ErrParseToml = errors.New("failed to parse TOML")
	ErrInvalid   = errors.New("invalid configuration")
)

// Config holds defaults for CLI flags. Empty fields leave the built-in default in place.
type Config struct {
	Output    string   `toml:"output"`
	Preload   string   `toml:"preload"`
	Engine    string   `toml:"engine"`
	LogLevel  string   `toml:"log_level"`
	LogFormat string   `toml:"log_format"`
	CacheDir  string   `toml:"cachedir"`
	Timeout   Duration `toml:"timeout"`
}

// Duration is a time.Duration written as a Go duration string, such as "1m30s".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Parse decodes TOML. Unknown keys are an error, as they are usually typos.
func Parse(data []byte) (*Config, error) {
	c := &Config{}
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseToml, err)
	}
	if c.Timeout < 0 {
		return nil, fmt.Errorf("%w: timeout %s is negative", ErrInvalid, time.Duration(c.Timeout))
	}
	return c, nil
}

// Load reads path. When path is empty, DefaultFile is read if it exists, otherwise an empty Config is returned.
//
// Relative preload, engine and cachedir paths are resolved against the directory of the file. The output path stays
// relative to the working directory.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	dir := filepath.Dir(path)
	for _, p := range []*string{&c.Preload, &c.Engine, &c.CacheDir} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
	return c, nil
}
