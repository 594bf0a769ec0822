package ruby

import "github.com/Shopify/ruvy/internal/wasmbin"

// sources is the passive data segment holding boot.rb and main.rb as C strings, followed by the state of
// rb_eval_string_protect. The initialize hook copies it into memory allocated with malloc.
type sources struct {
	data []byte
	// mainOffset and stateOffset are relative to the allocation.
	mainOffset, stateOffset, size int32
}

func newSources() *sources {
	data := append([]byte(bootSource), 0)
	mainOffset := len(data)
	data = append(data, mainSource...)
	data = append(data, 0)
	stateOffset := (len(data) + 3) &^ 3
	return &sources{
		data:        data,
		mainOffset:  int32(mainOffset),
		stateOffset: int32(stateOffset),
		size:        int32(stateOffset + 4),
	}
}

// hooks generates the bodies of the initialize and main hooks.
type hooks struct {
	// api indexes the functions of requiredExports by name.
	api      map[string]uint32
	procExit uint32
	// ptr is the global holding the allocation, so main finds the sources in the snapshot.
	ptr uint32
	// segment is the passive data segment of src.
	segment uint32
	src     *sources
}

// init boots Ruby and evaluates boot.rb. A failure exits with the status of ruby_cleanup.
func (h *hooks) init() *wasmbin.Code {
	stateOffset := uint32(h.src.stateOffset)
	return &wasmbin.Code{Body: wasmbin.Concat(
		wasmbin.Call(h.api[ExportInit]),
		wasmbin.Call(h.api[ExportInitLoadpath]),
		wasmbin.I32Const(h.src.size), wasmbin.Call(h.api[ExportMalloc]), wasmbin.GlobalSet(h.ptr),
		wasmbin.GlobalGet(h.ptr), wasmbin.IfEqz(wasmbin.Unreachable),
		wasmbin.GlobalGet(h.ptr), wasmbin.I32Const(0), wasmbin.I32Const(int32(len(h.src.data))), wasmbin.MemoryInit(h.segment),
		wasmbin.GlobalGet(h.ptr), wasmbin.I32Const(0), wasmbin.I32Store(stateOffset),
		h.eval(0),
		wasmbin.GlobalGet(h.ptr), wasmbin.I32Load(stateOffset),
		wasmbin.If(
			wasmbin.GlobalGet(h.ptr), wasmbin.I32Load(stateOffset), wasmbin.Call(h.api[ExportCleanup]),
			wasmbin.Call(h.procExit),
		),
		[]byte{wasmbin.OpcodeEnd},
	)}
}

// main evaluates main.rb and tears Ruby down, exiting with the status of ruby_cleanup unless it is zero.
func (h *hooks) main() *wasmbin.Code {
	stateOffset := uint32(h.src.stateOffset)
	return &wasmbin.Code{LocalTypes: []wasmbin.ValueType{wasmbin.ValueTypeI32}, Body: wasmbin.Concat(
		h.eval(h.src.mainOffset),
		wasmbin.GlobalGet(h.ptr), wasmbin.I32Load(stateOffset), wasmbin.Call(h.api[ExportCleanup]), wasmbin.LocalSet(0),
		wasmbin.LocalGet(0), wasmbin.If(wasmbin.LocalGet(0), wasmbin.Call(h.procExit)),
		[]byte{wasmbin.OpcodeEnd},
	)}
}

// eval calls rb_eval_string_protect on the source at offset, leaving the state in memory.
func (h *hooks) eval(offset int32) []byte {
	return wasmbin.Concat(
		wasmbin.GlobalGet(h.ptr), wasmbin.I32Const(offset), wasmbin.I32Add,
		wasmbin.GlobalGet(h.ptr), wasmbin.I32Const(h.src.stateOffset), wasmbin.I32Add,
		wasmbin.Call(h.api[ExportEvalStringProtect]), wasmbin.Drop,
	)
}
