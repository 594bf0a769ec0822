// Package guestmod assembles small WebAssembly guests that follow the same
// export contract as the Ruby engine: an initialize hook and a main hook.
//
// The guests talk to the host only through WASI, so builds and runs of them
// exercise the real sandbox without needing a Ruby toolchain.
package guestmod

import (
	"github.com/Shopify/ruvy/internal/wasmbin"
)

const (
	InitExport = "wizer.initialize"
	MainExport = "ruvy.main"
)

// Type indices shared by every guest.
const (
	typeFd     = iota // (i32 i32 i32 i32) -> i32
	typeExit          // (i32) -> ()
	typeSizes         // (i32 i32) -> i32
	typeVoid          // () -> ()
	typeUnary         // (i32) -> i32
	typeCount
)

// Imported function indices shared by every guest.
const (
	funcFdWrite = iota
	funcFdRead
	funcProcExit
	funcEnvironSizesGet
	funcFdPrestatGet

	// FirstFuncIndex is the index of the first function in Module.Funcs.
	FirstFuncIndex
)

// Signature is the type of a Func.
type Signature int

const (
	// SigVoid is () -> ().
	SigVoid Signature = iota
	// SigUnary is (i32) -> i32.
	SigUnary
	// SigBinary is (i32 i32) -> i32.
	SigBinary
)

func (s Signature) typeIndex() uint32 {
	switch s {
	case SigUnary:
		return typeUnary
	case SigBinary:
		return typeSizes
	}
	return typeVoid
}

// Func is a function defined by the guest.
type Func struct {
	// Name is the export name, or empty if the function isn't exported.
	Name string
	Sig  Signature
	// Locals follow the parameters.
	Locals []wasmbin.ValueType
	// Body excludes the final end instruction.
	Body []byte
}

// Module describes a guest. The zero value is a guest with no functions and one page of memory.
type Module struct {
	// MemoryPages is the minimum size of the defined memory, defaulting to one page.
	MemoryPages uint32
	// ImportMemory imports the memory from "env" instead of defining it.
	ImportMemory bool
	// NoMemory omits the memory altogether.
	NoMemory  bool
	Globals   []*wasmbin.Global
	Funcs     []Func
	Data      []*wasmbin.DataSegment
	DataCount bool
	// Start, when set, is the function index called by the start section.
	Start *uint32
}

// Encode returns the guest in the WebAssembly Binary Format.
func (m *Module) Encode() []byte {
	voidType := &wasmbin.FunctionType{}
	types := make([]*wasmbin.FunctionType, typeCount)
	types[typeFd] = &wasmbin.FunctionType{
		Params:  []wasmbin.ValueType{wasmbin.ValueTypeI32, wasmbin.ValueTypeI32, wasmbin.ValueTypeI32, wasmbin.ValueTypeI32},
		Results: []wasmbin.ValueType{wasmbin.ValueTypeI32},
	}
	types[typeExit] = &wasmbin.FunctionType{Params: []wasmbin.ValueType{wasmbin.ValueTypeI32}}
	types[typeSizes] = &wasmbin.FunctionType{
		Params:  []wasmbin.ValueType{wasmbin.ValueTypeI32, wasmbin.ValueTypeI32},
		Results: []wasmbin.ValueType{wasmbin.ValueTypeI32},
	}
	types[typeVoid] = voidType
	types[typeUnary] = &wasmbin.FunctionType{
		Params:  []wasmbin.ValueType{wasmbin.ValueTypeI32},
		Results: []wasmbin.ValueType{wasmbin.ValueTypeI32},
	}

	const wasi = "wasi_snapshot_preview1"
	imports := []*wasmbin.Import{
		{Type: wasmbin.ExternTypeFunc, Module: wasi, Name: "fd_write", DescFunc: typeFd},
		{Type: wasmbin.ExternTypeFunc, Module: wasi, Name: "fd_read", DescFunc: typeFd},
		{Type: wasmbin.ExternTypeFunc, Module: wasi, Name: "proc_exit", DescFunc: typeExit},
		{Type: wasmbin.ExternTypeFunc, Module: wasi, Name: "environ_sizes_get", DescFunc: typeSizes},
		{Type: wasmbin.ExternTypeFunc, Module: wasi, Name: "fd_prestat_get", DescFunc: typeSizes},
	}

	pages := m.MemoryPages
	if pages == 0 {
		pages = 1
	}
	memory := &wasmbin.Memory{Limits: wasmbin.Limits{Min: uint64(pages)}}
	if m.ImportMemory {
		imports = append(imports, &wasmbin.Import{Type: wasmbin.ExternTypeMemory, Module: "env", Name: "memory", DescMem: memory})
	}

	var exports []*wasmbin.Export
	if !m.NoMemory {
		exports = append(exports, &wasmbin.Export{Type: wasmbin.ExternTypeMemory, Name: "memory"})
	}
	funcTypes := make([]uint32, len(m.Funcs))
	codes := make([]*wasmbin.Code, len(m.Funcs))
	for i, f := range m.Funcs {
		funcTypes[i] = f.Sig.typeIndex()
		codes[i] = &wasmbin.Code{LocalTypes: f.Locals, Body: append(append([]byte{}, f.Body...), wasmbin.OpcodeEnd)}
		if f.Name != "" {
			exports = append(exports, &wasmbin.Export{Type: wasmbin.ExternTypeFunc, Name: f.Name, Index: FirstFuncIndex + uint32(i)})
		}
	}

	mod := &wasmbin.Module{}
	mod.SetSection(wasmbin.SectionIDType, wasmbin.EncodeTypeSection(types))
	mod.SetSection(wasmbin.SectionIDImport, wasmbin.EncodeImportSection(imports))
	mod.SetSection(wasmbin.SectionIDFunction, wasmbin.EncodeFunctionSection(funcTypes))
	if !m.ImportMemory && !m.NoMemory {
		mod.SetSection(wasmbin.SectionIDMemory, wasmbin.EncodeMemorySection([]*wasmbin.Memory{memory}))
	}
	if len(m.Globals) > 0 {
		mod.SetSection(wasmbin.SectionIDGlobal, wasmbin.EncodeGlobalSection(m.Globals))
	}
	mod.SetSection(wasmbin.SectionIDExport, wasmbin.EncodeExportSection(exports))
	if m.Start != nil {
		mod.SetSection(wasmbin.SectionIDStart, wasmbin.EncodeStartSection(*m.Start))
	}
	if m.DataCount {
		mod.SetSection(wasmbin.SectionIDDataCount, wasmbin.EncodeDataCountSection(uint32(len(m.Data))))
	}
	mod.SetSection(wasmbin.SectionIDCode, wasmbin.EncodeCodeSection(codes))
	if len(m.Data) > 0 {
		mod.SetSection(wasmbin.SectionIDData, wasmbin.EncodeDataSection(m.Data))
	}
	mod.Sections = append(mod.Sections, &wasmbin.Section{
		ID:      wasmbin.SectionIDCustom,
		Payload: append([]byte{byte(len("guestmod"))}, "guestmod"...),
	})
	return mod.Encode()
}

// MutableI32 returns a mutable i32 global initialized to v.
func MutableI32(v int32) *wasmbin.Global {
	return &wasmbin.Global{Type: &wasmbin.GlobalType{ValType: wasmbin.ValueTypeI32, Mutable: true}, Init: wasmbin.ConstI32(v)}
}

// ActiveData returns a data segment initializing memory at offset.
func ActiveData(offset int32, init string) *wasmbin.DataSegment {
	return &wasmbin.DataSegment{Offset: wasmbin.ConstI32(offset), Init: []byte(init)}
}

// Instructions the guests are written with.
var (
	Code        = wasmbin.Concat
	I32Const    = wasmbin.I32Const
	Call        = wasmbin.Call
	LocalGet    = wasmbin.LocalGet
	LocalSet    = wasmbin.LocalSet
	GlobalGet   = wasmbin.GlobalGet
	GlobalSet   = wasmbin.GlobalSet
	I32Load     = wasmbin.I32Load
	I32Load8U   = wasmbin.I32Load8U
	I32Store    = wasmbin.I32Store
	I32Store8   = wasmbin.I32Store8
	I32Add      = wasmbin.I32Add
	MemoryInit  = wasmbin.MemoryInit
	If          = wasmbin.If
	IfEqz       = wasmbin.IfEqz
	Loop        = wasmbin.Loop
	Br          = wasmbin.Br
	BrIf        = wasmbin.BrIf
	Drop        = wasmbin.Drop
	Unreachable = wasmbin.Unreachable
)

// WriteFd writes size bytes at ptr to fd, using scratch for the iovec and result.
func WriteFd(fd int32, ptr, size []byte, scratch int32) []byte {
	return Code(
		I32Const(scratch), ptr, I32Store(0),
		I32Const(scratch), size, I32Store(4),
		I32Const(fd), I32Const(scratch), I32Const(1), I32Const(scratch+8), Call(funcFdWrite), Drop,
	)
}

// ProcExit exits with code.
func ProcExit(code int32) []byte {
	return Code(I32Const(code), Call(funcProcExit))
}
