// Package guest implements the engine hooks in Go, for engines that are Go
// wasip1 reactors (GOOS=wasip1 -buildmode=c-shared) embedding an interpreter
// written for Go: Adapter brings up the interpreter, evaluates preload files,
// stages the primary script for the snapshot and evaluates it when the
// snapshot runs. internal/testing/fakeruby/engine is such an engine.
//
// The Ruby engine can't be one, as libruby can't be linked into a Go module.
// Its hooks, with the same lifecycle, are generated by internal/ruby.
//
// Nothing here calls the interpreter directly. The raw entry points are
// behind Interpreter, and Runtime is the only type that drives them.
package guest

// Value is an opaque handle to an interpreter object.
type Value uint32

// Interpreter is the raw interface of an embedded interpreter. Implementations are not safe for concurrent use and
// are only driven by Runtime.
type Interpreter interface {
	// Init brings up the interpreter. It is called once, before anything else.
	Init() error

	// EvalProtect evaluates source, returning a non-zero status instead of raising when an exception escapes.
	// The exception is then held in the error slot.
	EvalProtect(source string) (Value, int32)

	// ErrInfo returns the exception in the error slot, or false if the slot is empty.
	ErrInfo() (Value, bool)

	// ClearErrInfo empties the error slot.
	ClearErrInfo()

	// Inspect describes v with the interpreter's own coercion, returning false if that raised.
	Inspect(v Value) (string, bool)

	// Cleanup tears the interpreter down, returning its exit status.
	Cleanup(status int32) int32
}
