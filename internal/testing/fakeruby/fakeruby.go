// Package fakeruby is a tiny line-oriented language behind guest.Interpreter, so that an engine built like the Ruby
// one can be snapshotted and run in tests without a Ruby toolchain.
package fakeruby

import (
	"fmt"
	"io"
	"strings"

	"github.com/Shopify/ruvy/internal/guest"
)

// TagRaise is the status EvalProtect returns for an exception, like libruby's TAG_RAISE.
const TagRaise = 6

// Interpreter understands one statement per line:
//
//	NAME = VALUE   binds NAME
//	puts ARG...    writes the arguments, each bound NAME replaced by its value, and a newline
//	raise MESSAGE  raises an exception described as #<RuntimeError: MESSAGE>
type Interpreter struct {
	stdout   io.Writer
	bindings map[string]string

	// errInfo is the error slot, zero when empty.
	errInfo    guest.Value
	exceptions map[guest.Value]string
	nextValue  guest.Value
}

var _ guest.Interpreter = (*Interpreter)(nil)

// New returns an interpreter that writes to stdout.
func New(stdout io.Writer) *Interpreter {
	return &Interpreter{stdout: stdout}
}

func (i *Interpreter) Init() error {
	i.bindings = map[string]string{}
	i.exceptions = map[guest.Value]string{}
	i.nextValue = 1
	return nil
}

func (i *Interpreter) EvalProtect(source string) (guest.Value, int32) {
	for _, line := range strings.Split(source, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
		case line == "puts" || strings.HasPrefix(line, "puts "):
			args := strings.Fields(strings.TrimPrefix(line, "puts"))
			for n, arg := range args {
				if v, ok := i.bindings[arg]; ok {
					args[n] = v
				}
			}
			fmt.Fprintln(i.stdout, strings.Join(args, " "))
		case strings.HasPrefix(line, "raise "):
			return 0, i.raise(strings.TrimPrefix(line, "raise "))
		case strings.Contains(line, "="):
			name, value, _ := strings.Cut(line, "=")
			i.bindings[strings.TrimSpace(name)] = strings.TrimSpace(value)
		default:
			return 0, i.raise(fmt.Sprintf("undefined local variable or method `%s'", line))
		}
	}
	return i.value(), 0
}

func (i *Interpreter) value() guest.Value {
	v := i.nextValue
	i.nextValue++
	return v
}

func (i *Interpreter) raise(message string) int32 {
	v := i.value()
	i.exceptions[v] = message
	i.errInfo = v
	return TagRaise
}

func (i *Interpreter) ErrInfo() (guest.Value, bool) {
	return i.errInfo, i.errInfo != 0
}

func (i *Interpreter) ClearErrInfo() {
	i.errInfo = 0
}

func (i *Interpreter) Inspect(v guest.Value) (string, bool) {
	message, ok := i.exceptions[v]
	if !ok {
		return "", false
	}
	return fmt.Sprintf("#<RuntimeError: %s>", message), true
}

func (i *Interpreter) Cleanup(status int32) int32 {
	return status
}
