package guest

import (
	"errors"
	"io/fs"
	"log/slog"
	"path"
	"slices"
	"strings"
	"unicode/utf8"
)

// PreloadPathEnv names the environment variable holding the guest path of the preload directory.
const PreloadPathEnv = "RUVY_PRELOAD_PATH"

var errInvalidUTF8 = errors.New("content is not valid UTF-8")

// Evaluator evaluates source text.
type Evaluator interface {
	Eval(source string) (Value, error)
}

// Preload evaluates the regular files at the root of fsys, stopping at the first failure. dir is the path of fsys
// used in errors and logs. Symbolic links are followed, and entries that are not regular files are skipped.
//
// Files are evaluated in lexical order of their names, whatever order fsys lists them in, so the same directory
// always gives the same snapshot.
func Preload(ev Evaluator, fsys fs.FS, dir string, logger *slog.Logger) error {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return &PreloadError{Path: dir, Err: err}
	}
	// fs.ReadDir leaves the order of a ReadDirFS as is.
	slices.SortFunc(entries, func(a, b fs.DirEntry) int {
		return strings.Compare(a.Name(), b.Name())
	})

	for _, e := range entries {
		name := e.Name()
		p := path.Join(dir, name)

		info, err := fs.Stat(fsys, name)
		if err != nil && e.Type()&fs.ModeSymlink != 0 && errors.Is(err, fs.ErrNotExist) {
			logger.Debug("skipping dangling preload link", "path", p)
			continue
		} else if err != nil {
			return &PreloadError{Path: p, Err: err}
		}
		if !info.Mode().IsRegular() {
			logger.Debug("skipping preload entry", "path", p, "mode", info.Mode().String())
			continue
		}

		source, err := fs.ReadFile(fsys, name)
		if err != nil {
			return &PreloadError{Path: p, Err: err}
		}
		if !utf8.Valid(source) {
			return &PreloadError{Path: p, Err: errInvalidUTF8}
		}

		logger.Debug("evaluating preload file", "path", p, "size", len(source))
		if _, err = ev.Eval(string(source)); err != nil {
			return &PreloadError{Path: p, Err: err}
		}
	}
	return nil
}
