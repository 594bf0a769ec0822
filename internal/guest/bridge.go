package guest

import "strings"

// UnknownExceptionMessage describes an exception whose own description raised.
const UnknownExceptionMessage = "<unable to describe exception>"

type runtimeState int

const (
	runtimeNew runtimeState = iota
	runtimeStarted
	runtimeShutdown
)

// Runtime wraps an Interpreter so that every evaluation either succeeds or returns an *InterpreterError, leaving
// the error slot empty either way.
type Runtime struct {
	interp Interpreter
	state  runtimeState
}

// NewRuntime wraps interp, which must not have been initialized yet.
func NewRuntime(interp Interpreter) *Runtime {
	return &Runtime{interp: interp}
}

// Start brings up the interpreter.
func (r *Runtime) Start() error {
	switch r.state {
	case runtimeStarted:
		return &StateError{Op: "start the interpreter", State: "already started"}
	case runtimeShutdown:
		return ErrShutdown
	}
	if err := r.interp.Init(); err != nil {
		return err
	}
	r.state = runtimeStarted
	return nil
}

func (r *Runtime) ready() error {
	switch r.state {
	case runtimeNew:
		return ErrNotStarted
	case runtimeShutdown:
		return ErrShutdown
	}
	return nil
}

// Eval evaluates source. An exception is returned as an *InterpreterError.
func (r *Runtime) Eval(source string) (Value, error) {
	if err := r.ready(); err != nil {
		return 0, err
	}
	// The interpreter takes a C string.
	if strings.IndexByte(source, 0) >= 0 {
		return 0, &InterpreterError{Status: -1, Message: "source contains a NUL byte"}
	}

	v, status := r.interp.EvalProtect(source)
	if status != 0 {
		return 0, r.takeLastError(status)
	}
	return v, nil
}

// takeLastError describes and clears the exception in the error slot. It is the only reader of the slot.
func (r *Runtime) takeLastError(status int32) *InterpreterError {
	msg := UnknownExceptionMessage
	if exc, ok := r.interp.ErrInfo(); ok {
		if s, ok := r.interp.Inspect(exc); ok {
			msg = s
		}
	}
	r.interp.ClearErrInfo()
	return &InterpreterError{Status: status, Message: msg}
}

// Shutdown tears the interpreter down. The runtime can't be used afterward, even when this returns an error.
func (r *Runtime) Shutdown() error {
	if err := r.ready(); err != nil {
		return err
	}
	r.state = runtimeShutdown
	if status := r.interp.Cleanup(0); status != 0 {
		return &CleanupError{Status: status}
	}
	return nil
}
