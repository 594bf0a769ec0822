package ruby

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"

	"github.com/Shopify/ruvy/internal/wasmbin"
)

const (
	// InitExport and MainExport are the hooks Inject adds.
	InitExport = "wizer.initialize"
	MainExport = "ruvy.main"

	ExportMalloc            = "malloc"
	ExportInit              = "ruby_init"
	ExportInitLoadpath      = "ruby_init_loadpath"
	ExportEvalStringProtect = "rb_eval_string_protect"
	ExportCleanup           = "ruby_cleanup"

	wasiModule     = "wasi_snapshot_preview1"
	importProcExit = "proc_exit"
)

var (
	ErrMissingExport = errors.New("missing export")
	ErrMissingImport = errors.New("missing import")
	ErrSignature     = errors.New("unexpected signature")
	ErrNoMemory      = errors.New("memory must be defined by the module")
	ErrHookExists    = errors.New("hook already exported")
)

var (
	//go:embed boot.rb
	bootSource string
	//go:embed main.rb
	mainSource string
)

var (
	i32      = wasmbin.ValueTypeI32
	sigVoid  = &wasmbin.FunctionType{}
	sigUnary = &wasmbin.FunctionType{Params: []wasmbin.ValueType{i32}, Results: []wasmbin.ValueType{i32}}
	sigEval  = &wasmbin.FunctionType{Params: []wasmbin.ValueType{i32, i32}, Results: []wasmbin.ValueType{i32}}
	sigExit  = &wasmbin.FunctionType{Params: []wasmbin.ValueType{i32}}
)

var requiredExports = []struct {
	name string
	sig  *wasmbin.FunctionType
}{
	{ExportMalloc, sigUnary},
	{ExportInit, sigVoid},
	{ExportInitLoadpath, sigVoid},
	{ExportEvalStringProtect, sigEval},
	{ExportCleanup, sigUnary},
}

// reactor is the decoded libruby reactor, with the index spaces that added definitions are appended to.
type reactor struct {
	m       *wasmbin.Module
	types   []*wasmbin.FunctionType
	imports []*wasmbin.Import
	funcs   []uint32
	exports []*wasmbin.Export

	importedFuncs, importedGlobals uint32
}

// Inject returns the libruby reactor with the initialize and main hooks added, ready for ruvy.Build.
//
// Only definitions are appended: the functions, globals and data segments of the reactor keep their indices, and the
// sections that aren't extended are copied byte-for-byte.
func Inject(libruby []byte) ([]byte, error) {
	r, err := decodeReactor(libruby)
	if err != nil {
		return nil, err
	}

	for _, name := range []string{InitExport, MainExport} {
		if r.export(name) != nil {
			return nil, fmt.Errorf("%w: %q", ErrHookExists, name)
		}
	}
	if err = r.requireMemory(); err != nil {
		return nil, err
	}

	api := make(map[string]uint32, len(requiredExports))
	for _, req := range requiredExports {
		e := r.export(req.name)
		if e == nil || e.Type != wasmbin.ExternTypeFunc {
			return nil, fmt.Errorf("%w: function %q", ErrMissingExport, req.name)
		}
		if sig := r.funcType(e.Index); !sameSignature(sig, req.sig) {
			return nil, fmt.Errorf("%w: %s is %s, not %s", ErrSignature, req.name, signature(sig), signature(req.sig))
		}
		api[req.name] = e.Index
	}
	procExit, err := r.procExit()
	if err != nil {
		return nil, err
	}

	src := newSources()
	hooks := &hooks{
		api:      api,
		procExit: procExit,
		ptr:      r.importedGlobals + r.globalCount(),
		segment:  r.dataCount(),
		src:      src,
	}

	m := r.m.Clone()
	voidType := r.appendType(m, sigVoid)
	if err = appendToSection(m, wasmbin.SectionIDGlobal, wasmbin.EncodeGlobalSection([]*wasmbin.Global{{
		Type: &wasmbin.GlobalType{ValType: i32, Mutable: true},
		Init: wasmbin.ConstI32(0),
	}})); err != nil {
		return nil, err
	}
	if err = appendToSection(m, wasmbin.SectionIDFunction, wasmbin.EncodeFunctionSection([]uint32{voidType, voidType})); err != nil {
		return nil, err
	}
	if err = appendToSection(m, wasmbin.SectionIDCode, wasmbin.EncodeCodeSection([]*wasmbin.Code{hooks.init(), hooks.main()})); err != nil {
		return nil, err
	}
	if err = appendToSection(m, wasmbin.SectionIDData, wasmbin.EncodeDataSection([]*wasmbin.DataSegment{
		{Passive: true, Init: src.data},
	})); err != nil {
		return nil, err
	}
	// memory.init needs a data count section.
	m.SetSection(wasmbin.SectionIDDataCount, wasmbin.EncodeDataCountSection(hooks.segment+1))

	initIdx := r.importedFuncs + uint32(len(r.funcs))
	exports := append(slices.Clone(r.exports),
		&wasmbin.Export{Type: wasmbin.ExternTypeFunc, Name: InitExport, Index: initIdx},
		&wasmbin.Export{Type: wasmbin.ExternTypeFunc, Name: MainExport, Index: initIdx + 1},
	)
	m.SetSection(wasmbin.SectionIDExport, wasmbin.EncodeExportSection(exports))
	return m.Encode(), nil
}

func decodeReactor(bin []byte) (*reactor, error) {
	m, err := wasmbin.DecodeModule(bin)
	if err != nil {
		return nil, err
	}
	r := &reactor{m: m}
	if payload := m.Section(wasmbin.SectionIDType); payload != nil {
		if r.types, err = wasmbin.DecodeTypeSection(payload); err != nil {
			return nil, fmt.Errorf("section type: %w", err)
		}
	}
	if payload := m.Section(wasmbin.SectionIDImport); payload != nil {
		if r.imports, err = wasmbin.DecodeImportSection(payload); err != nil {
			return nil, fmt.Errorf("section import: %w", err)
		}
	}
	for _, i := range r.imports {
		switch i.Type {
		case wasmbin.ExternTypeFunc:
			r.importedFuncs++
		case wasmbin.ExternTypeGlobal:
			r.importedGlobals++
		}
	}
	if payload := m.Section(wasmbin.SectionIDFunction); payload != nil {
		if r.funcs, err = wasmbin.DecodeFunctionSection(payload); err != nil {
			return nil, fmt.Errorf("section function: %w", err)
		}
	}
	if payload := m.Section(wasmbin.SectionIDExport); payload != nil {
		if r.exports, err = wasmbin.DecodeExportSection(payload); err != nil {
			return nil, fmt.Errorf("section export: %w", err)
		}
	}
	if _, err = wasmbin.VectorLen(m.Section(wasmbin.SectionIDGlobal)); err != nil {
		return nil, fmt.Errorf("section global: %w", err)
	}
	if _, err = wasmbin.VectorLen(m.Section(wasmbin.SectionIDData)); err != nil {
		return nil, fmt.Errorf("section data: %w", err)
	}
	return r, nil
}

func (r *reactor) export(name string) *wasmbin.Export {
	for _, e := range r.exports {
		if e.Name == name {
			return e
		}
	}
	return nil
}

func (r *reactor) requireMemory() error {
	payload := r.m.Section(wasmbin.SectionIDMemory)
	if payload == nil {
		return ErrNoMemory
	}
	memories, err := wasmbin.DecodeMemorySection(payload)
	if err != nil {
		return fmt.Errorf("section memory: %w", err)
	}
	if len(memories) != 1 {
		return fmt.Errorf("%w: %d memories defined", ErrNoMemory, len(memories))
	}
	return nil
}

// funcType returns the signature of the function at idx, or nil if the index or its type is out of range.
func (r *reactor) funcType(idx uint32) *wasmbin.FunctionType {
	var typeIdx uint32
	if idx < r.importedFuncs {
		n := uint32(0)
		for _, i := range r.imports {
			if i.Type != wasmbin.ExternTypeFunc {
				continue
			}
			if n == idx {
				typeIdx = i.DescFunc
				break
			}
			n++
		}
	} else if idx-r.importedFuncs < uint32(len(r.funcs)) {
		typeIdx = r.funcs[idx-r.importedFuncs]
	} else {
		return nil
	}
	if typeIdx >= uint32(len(r.types)) {
		return nil
	}
	return r.types[typeIdx]
}

func (r *reactor) procExit() (uint32, error) {
	n := uint32(0)
	for _, i := range r.imports {
		if i.Type != wasmbin.ExternTypeFunc {
			continue
		}
		if i.Module == wasiModule && i.Name == importProcExit {
			if sig := r.funcType(n); !sameSignature(sig, sigExit) {
				return 0, fmt.Errorf("%w: %s.%s is %s", ErrSignature, wasiModule, importProcExit, signature(sig))
			}
			return n, nil
		}
		n++
	}
	return 0, fmt.Errorf("%w: %s.%s", ErrMissingImport, wasiModule, importProcExit)
}

// globalCount and dataCount were validated by decodeReactor.
func (r *reactor) globalCount() uint32 {
	n, _ := wasmbin.VectorLen(r.m.Section(wasmbin.SectionIDGlobal))
	return n
}

func (r *reactor) dataCount() uint32 {
	n, _ := wasmbin.VectorLen(r.m.Section(wasmbin.SectionIDData))
	return n
}

// appendType returns the index of sig in m, adding it to the type section if the reactor has no such type.
func (r *reactor) appendType(m *wasmbin.Module, sig *wasmbin.FunctionType) uint32 {
	for i, t := range r.types {
		if sameSignature(t, sig) {
			return uint32(i)
		}
	}
	m.SetSection(wasmbin.SectionIDType, wasmbin.EncodeTypeSection(append(slices.Clone(r.types), sig)))
	return uint32(len(r.types))
}

func appendToSection(m *wasmbin.Module, id wasmbin.SectionID, vector []byte) error {
	payload, err := wasmbin.ConcatVectors(m.Section(id), vector)
	if err != nil {
		return fmt.Errorf("section %s: %w", wasmbin.SectionIDName(id), err)
	}
	m.SetSection(id, payload)
	return nil
}

func sameSignature(a, b *wasmbin.FunctionType) bool {
	return a != nil && slices.Equal(a.Params, b.Params) && slices.Equal(a.Results, b.Results)
}

func signature(t *wasmbin.FunctionType) string {
	if t == nil {
		return "not a valid function"
	}
	names := func(vts []wasmbin.ValueType) (ret []string) {
		for _, vt := range vts {
			ret = append(ret, wasmbin.ValueTypeName(vt))
		}
		return
	}
	return fmt.Sprintf("%v -> %v", names(t.Params), names(t.Results))
}
