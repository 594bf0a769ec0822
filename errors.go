package ruvy

import (
	"github.com/Shopify/ruvy/internal/snapshot"
)

// BuildError is returned by Build when a step of the snapshot pipeline fails. Op names the step, for example
// "initialize" when the engine's initialization hook trapped or exited.
type BuildError struct {
	Op  string
	Err error
}

// Error implements error.
func (e *BuildError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

// Unwrap returns the cause, so errors.Is works on the sentinel errors below.
func (e *BuildError) Unwrap() error {
	return e.Err
}

var (
	// ErrMissingExport is returned when the engine lacks the initialization or main export.
	ErrMissingExport = snapshot.ErrMissingExport
	// ErrImportedMemory is returned when the engine imports its memory instead of defining it.
	ErrImportedMemory = snapshot.ErrImportedMemory
	// ErrUnsupportedGlobal is returned for mutable globals whose value cannot be captured, such as imported ones.
	ErrUnsupportedGlobal = snapshot.ErrUnsupportedGlobal
)
