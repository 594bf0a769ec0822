package guest

import (
	"fmt"
	"strings"
)

// fakeInterpreter understands one statement per line:
//
//	NAME = VALUE   binds NAME
//	raise MESSAGE  raises an exception described as #<RuntimeError: MESSAGE>
//	raise!         raises an exception whose description raises too
type fakeInterpreter struct {
	initErr       error
	cleanupStatus int32

	initialized bool
	cleanedUp   bool
	evaluated   []string
	bindings    map[string]string

	// errInfo is the error slot, zero when empty.
	errInfo    Value
	exceptions map[Value]fakeException
	nextValue  Value
}

type fakeException struct {
	message       string
	uninspectable bool
}

func newFakeInterpreter() *fakeInterpreter {
	return &fakeInterpreter{bindings: map[string]string{}, exceptions: map[Value]fakeException{}, nextValue: 1}
}

func (f *fakeInterpreter) Init() error {
	if f.initErr != nil {
		return f.initErr
	}
	f.initialized = true
	return nil
}

func (f *fakeInterpreter) EvalProtect(source string) (Value, int32) {
	if !f.initialized || f.cleanedUp {
		panic("BUG: interpreter used outside its lifetime")
	}
	f.evaluated = append(f.evaluated, source)
	for _, line := range strings.Split(source, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
		case line == "raise!":
			return 0, f.raise(fakeException{uninspectable: true})
		case strings.HasPrefix(line, "raise "):
			return 0, f.raise(fakeException{message: strings.TrimPrefix(line, "raise ")})
		case strings.Contains(line, "="):
			name, value, _ := strings.Cut(line, "=")
			f.bindings[strings.TrimSpace(name)] = strings.TrimSpace(value)
		default:
			return 0, f.raise(fakeException{message: fmt.Sprintf("undefined local variable or method `%s'", line)})
		}
	}
	return f.value(), 0
}

func (f *fakeInterpreter) value() Value {
	v := f.nextValue
	f.nextValue++
	return v
}

func (f *fakeInterpreter) raise(e fakeException) int32 {
	v := f.value()
	f.exceptions[v] = e
	f.errInfo = v
	return 6 // TAG_RAISE
}

func (f *fakeInterpreter) ErrInfo() (Value, bool) {
	return f.errInfo, f.errInfo != 0
}

func (f *fakeInterpreter) ClearErrInfo() {
	f.errInfo = 0
}

func (f *fakeInterpreter) Inspect(v Value) (string, bool) {
	e, ok := f.exceptions[v]
	if !ok {
		panic("BUG: inspect of unknown value")
	}
	if e.uninspectable {
		// Like a raising #inspect, this replaces the error slot.
		f.raise(fakeException{message: "inspect failed"})
		return "", false
	}
	return fmt.Sprintf("#<RuntimeError: %s>", e.message), true
}

func (f *fakeInterpreter) Cleanup(status int32) int32 {
	f.cleanedUp = true
	return status + f.cleanupStatus
}
