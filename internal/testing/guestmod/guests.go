package guestmod

import (
	"math"

	"github.com/Shopify/ruvy/internal/wasmbin"
)

// HelloOutput is what the main hook of Hello writes to stdout.
const HelloOutput = "Hello world\n"

// Hello changes its data and a global during initialize, then prints them from main.
// Its "_start" export exits with code 99, so running it by mistake is visible.
func Hello() *Module {
	const msg = "hello world\n"
	return &Module{
		Globals: []*wasmbin.Global{MutableI32(0)},
		Data:    []*wasmbin.DataSegment{ActiveData(64, msg)},
		Funcs: []Func{
			{Name: InitExport, Body: Code(
				I32Const(64), I32Const('H'), I32Store8(0),
				I32Const(int32(len(msg))), GlobalSet(0),
			)},
			{Name: MainExport, Body: WriteFd(1, I32Const(64), GlobalGet(0), 0)},
			{Name: "_start", Body: ProcExit(99)},
		},
	}
}

// Echo reads stdin into memory during initialize and writes it back from main.
// Only the first 4KiB of stdin are kept.
func Echo() *Module {
	const buf, bufLen = 1024, 4096
	return &Module{
		Globals: []*wasmbin.Global{MutableI32(0)},
		Funcs: []Func{
			{Name: InitExport, Body: Code(
				I32Const(0), I32Const(buf), I32Store(0),
				I32Const(0), I32Const(bufLen), I32Store(4),
				I32Const(0), I32Const(0), I32Const(1), I32Const(8), Call(funcFdRead), Drop,
				I32Const(0), I32Load(8), GlobalSet(0),
			)},
			{Name: MainExport, Body: WriteFd(1, I32Const(buf), GlobalGet(0), 16)},
		},
	}
}

// Failing traps during initialize.
func Failing() *Module {
	return &Module{Funcs: []Func{
		{Name: InitExport, Body: Unreachable},
		{Name: MainExport},
	}}
}

// ExitMessage is what Exit writes to stderr before exiting.
const ExitMessage = "intentional preload error\n"

// Exit writes ExitMessage to stderr and exits with code 1 during initialize, like the engine does when a preload
// file raises.
func Exit() *Module {
	return &Module{
		Data: []*wasmbin.DataSegment{ActiveData(256, ExitMessage)},
		Funcs: []Func{
			{Name: InitExport, Body: Code(
				WriteFd(2, I32Const(256), I32Const(int32(len(ExitMessage))), 0),
				ProcExit(1),
			)},
			{Name: MainExport},
		},
	}
}

// CapabilityOutput is what the main hook of Capability writes to stdout.
const CapabilityOutput = "capabilities ok\n"

// Capability traps during initialize unless a directory is pre-opened at fd 3 and at least one environment variable
// is set.
func Capability() *Module {
	return &Module{
		Data: []*wasmbin.DataSegment{ActiveData(128, CapabilityOutput)},
		Funcs: []Func{
			{Name: InitExport, Body: Code(
				I32Const(3), I32Const(32), Call(funcFdPrestatGet), If(Unreachable),
				I32Const(40), I32Const(44), Call(funcEnvironSizesGet), Drop,
				I32Const(0), I32Load(40), IfEqz(Unreachable),
			)},
			{Name: MainExport, Body: WriteFd(1, I32Const(128), I32Const(int32(len(CapabilityOutput))), 0)},
		},
	}
}

// ReactorOutput is what the main hook of Reactor writes to stdout.
const ReactorOutput = "reactor ok\n"

// Reactor exports "_initialize", which must run before the initialize hook.
func Reactor() *Module {
	return &Module{
		Globals: []*wasmbin.Global{MutableI32(0)},
		Data:    []*wasmbin.DataSegment{ActiveData(64, ReactorOutput)},
		Funcs: []Func{
			{Name: "_initialize", Body: Code(I32Const(1), GlobalSet(0))},
			{Name: InitExport, Body: Code(GlobalGet(0), IfEqz(Unreachable))},
			{Name: MainExport, Body: WriteFd(1, I32Const(64), I32Const(int32(len(ReactorOutput))), 0)},
		},
	}
}

// BulkOutput is what the main hook of Bulk writes to stdout.
const BulkOutput = "xyz\nabc"

// Bulk has a data count section, an active segment and a passive segment that main copies with memory.init.
func Bulk() *Module {
	return &Module{
		DataCount: true,
		Data: []*wasmbin.DataSegment{
			ActiveData(100, "abc"),
			{Passive: true, Init: []byte("xyz\n")},
		},
		Funcs: []Func{
			{Name: InitExport},
			{Name: MainExport, Body: Code(
				I32Const(200), I32Const(0), I32Const(4), MemoryInit(1),
				WriteFd(1, I32Const(200), I32Const(4), 0),
				WriteFd(1, I32Const(100), I32Const(3), 16),
			)},
		},
	}
}

// Globals sets a mutable global of each numeric type during initialize. Global 4 is immutable.
func Globals() *Module {
	return &Module{
		Globals: []*wasmbin.Global{
			MutableI32(1),
			{Type: &wasmbin.GlobalType{ValType: wasmbin.ValueTypeI64, Mutable: true}, Init: wasmbin.ConstI64(0)},
			{Type: &wasmbin.GlobalType{ValType: wasmbin.ValueTypeF32, Mutable: true}, Init: wasmbin.ConstF32(0)},
			{Type: &wasmbin.GlobalType{ValType: wasmbin.ValueTypeF64, Mutable: true}, Init: wasmbin.ConstF64(0)},
			{Type: &wasmbin.GlobalType{ValType: wasmbin.ValueTypeI32}, Init: wasmbin.ConstI32(7)},
		},
		Funcs: []Func{
			{Name: InitExport, Body: Code(
				I32Const(42), GlobalSet(0),
				wasmbin.ConstI64(-5).Data, GlobalSet(1),
				wasmbin.ConstF32(math.Float32bits(1.5)).Data, GlobalSet(2),
				wasmbin.ConstF64(math.Float64bits(2.5)).Data, GlobalSet(3),
			)},
			{Name: MainExport},
		},
	}
}

// Grow grows memory by two pages during initialize and writes 7 at byte 5 of the last page.
func Grow() *Module {
	return &Module{
		Funcs: []Func{
			{Name: InitExport, Body: Code(
				I32Const(2), []byte{0x40, 0x00}, Drop,
				I32Const(2*65536+5), I32Const(7), I32Store8(0),
			)},
			{Name: MainExport},
		},
	}
}

// Spin never returns from initialize, so only a context deadline ends it.
func Spin() *Module {
	return &Module{Funcs: []Func{
		{Name: InitExport, Body: Loop(Br(0))},
		{Name: MainExport},
	}}
}
