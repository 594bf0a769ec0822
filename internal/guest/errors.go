package guest

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyStaged is returned when input is staged a second time in the same instance.
	ErrAlreadyStaged = errors.New("input already staged")
	// ErrNoScript is returned when the primary script is not available.
	ErrNoScript = errors.New("no script")
	// ErrNotStarted is returned when the interpreter is used before Runtime.Start.
	ErrNotStarted = errors.New("interpreter not started")
	// ErrShutdown is returned when the interpreter is used after Runtime.Shutdown.
	ErrShutdown = errors.New("interpreter shut down")
)

// InterpreterError is an exception raised while evaluating source text.
type InterpreterError struct {
	// Status is the non-zero status reported by the interpreter.
	Status int32
	// Message is the interpreter's own description of the exception.
	Message string
}

// Error returns the description of the exception, which is what users see on stderr.
func (e *InterpreterError) Error() string {
	return e.Message
}

// PreloadError names the preload file or directory that could not be read or evaluated.
type PreloadError struct {
	Path string
	Err  error
}

func (e *PreloadError) Error() string {
	return fmt.Sprintf("preload %s: %v", e.Path, e.Err)
}

func (e *PreloadError) Unwrap() error {
	return e.Err
}

// StateError is returned when a lifecycle operation is attempted from the wrong state.
type StateError struct {
	Op    string
	State string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s when %s", e.Op, e.State)
}

// CleanupError is returned when the interpreter tears down with an unexpected status.
type CleanupError struct {
	Status int32
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("unexpected interpreter cleanup status: %d", e.Status)
}
