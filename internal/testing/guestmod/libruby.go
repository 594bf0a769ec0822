package guestmod

import "github.com/Shopify/ruvy/internal/wasmbin"

// Function indices of LibRuby.
const (
	LibRubyInitialize = FirstFuncIndex + iota
	LibRubyMalloc
	LibRubyInit
	LibRubyInitLoadpath
	LibRubyEvalStringProtect
	LibRubyCleanup
)

// LibRubyHeap is where the malloc of LibRuby starts allocating.
const LibRubyHeap = 1024

// LibRuby stands in for a libruby reactor: it exports the C API the engine hooks are generated against, but no
// hooks.
//
//   - "_initialize" sets up the heap, which malloc bump-allocates from.
//   - rb_eval_string_protect writes the C string it is given to stdout, stores evalState as the state and returns 4.
//   - ruby_cleanup returns cleanupStatus when passed zero, otherwise the state it is passed, like a failed evaluation.
//
// Calls before ruby_init, or after ruby_cleanup, trap.
func LibRuby(evalState, cleanupStatus int32) *Module {
	const heap, running = 0, 1
	requireRunning := Code(GlobalGet(running), IfEqz(Unreachable))
	return &Module{
		Globals: []*wasmbin.Global{MutableI32(0), MutableI32(0)},
		Funcs: []Func{
			{Name: "_initialize", Body: Code(I32Const(LibRubyHeap), GlobalSet(heap))},
			{Name: "malloc", Sig: SigUnary, Body: Code(
				GlobalGet(heap), IfEqz(Unreachable),
				GlobalGet(heap),
				GlobalGet(heap), LocalGet(0), I32Add, GlobalSet(heap),
			)},
			{Name: "ruby_init", Body: Code(I32Const(1), GlobalSet(running))},
			{Name: "ruby_init_loadpath", Body: requireRunning},
			{Name: "rb_eval_string_protect", Sig: SigBinary, Locals: []wasmbin.ValueType{wasmbin.ValueTypeI32}, Body: Code(
				requireRunning,
				// Local 2 counts the bytes before the NUL.
				Loop(
					LocalGet(0), LocalGet(2), I32Add, I32Load8U(0),
					If(LocalGet(2), I32Const(1), I32Add, LocalSet(2), Br(1)),
				),
				WriteFd(1, LocalGet(0), LocalGet(2), 0),
				LocalGet(1), I32Const(evalState), I32Store(0),
				I32Const(4),
			)},
			{Name: "ruby_cleanup", Sig: SigUnary, Body: Code(
				requireRunning,
				I32Const(0), GlobalSet(running),
				LocalGet(0), IfEqz(I32Const(cleanupStatus), LocalSet(0)),
				LocalGet(0),
			)},
		},
	}
}
