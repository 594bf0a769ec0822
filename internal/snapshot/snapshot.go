// Package snapshot turns a guest module and a live, initialized instance of it
// into a new module whose initial memory and globals are the instance's state.
//
// The flow is Instrument, instantiate Plan.Instrumented and call the initialize
// hook, Plan.Capture, then Plan.Emit.
package snapshot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Shopify/ruvy/internal/wasmbin"
)

const (
	// reservedPrefix prefixes the exports added to the instrumented module.
	reservedPrefix = "__ruvy_snapshot_"
	// MemoryExport is the name memory 0 is exported as in the instrumented module.
	MemoryExport       = reservedPrefix + "memory"
	globalExportPrefix = reservedPrefix + "global_"
)

var (
	ErrMissingExport      = errors.New("missing export")
	ErrImportedMemory     = errors.New("imported memory is not supported")
	ErrUnsupportedMemory  = errors.New("unsupported memory")
	ErrUnsupportedGlobal  = errors.New("unsupported global")
	ErrReservedExportName = errors.New("reserved export name")
)

// Options name the hooks of the guest.
type Options struct {
	InitExport string
	MainExport string
}

type globalSlot struct {
	// index is in the global index space, which starts with imported globals.
	index   uint32
	valType wasmbin.ValueType
	export  string
}

// Plan is the result of inspecting a guest. It is immutable and may be used for any number of captures.
type Plan struct {
	// Instrumented is the guest with memory and mutable globals exported under reserved names.
	Instrumented []byte

	opts      Options
	original  *wasmbin.Module
	exports   []*wasmbin.Export
	globals   []globalSlot
	hasMemory bool

	importedGlobals uint32
}

// Globals returns the count of mutable globals that a capture records.
func (p *Plan) Globals() int {
	return len(p.globals)
}

// Instrument validates the guest and prepares it for capture.
func Instrument(guest []byte, opts Options) (*Plan, error) {
	m, err := wasmbin.DecodeModule(guest)
	if err != nil {
		return nil, err
	}
	p := &Plan{opts: opts, original: m}

	if payload := m.Section(wasmbin.SectionIDImport); payload != nil {
		imports, err := wasmbin.DecodeImportSection(payload)
		if err != nil {
			return nil, fmt.Errorf("section import: %w", err)
		}
		for _, i := range imports {
			switch i.Type {
			case wasmbin.ExternTypeMemory:
				return nil, fmt.Errorf("%w: %s.%s", ErrImportedMemory, i.Module, i.Name)
			case wasmbin.ExternTypeGlobal:
				if i.DescGlobal.Mutable {
					return nil, fmt.Errorf("%w: imported mutable global %s.%s", ErrUnsupportedGlobal, i.Module, i.Name)
				}
				p.importedGlobals++
			}
		}
	}

	if payload := m.Section(wasmbin.SectionIDMemory); payload != nil {
		memories, err := wasmbin.DecodeMemorySection(payload)
		if err != nil {
			return nil, fmt.Errorf("section memory: %w", err)
		}
		switch {
		case len(memories) > 1:
			return nil, fmt.Errorf("%w: %d memories defined", ErrUnsupportedMemory, len(memories))
		case len(memories) == 1 && memories[0].Is64:
			return nil, fmt.Errorf("%w: 64-bit memory", ErrUnsupportedMemory)
		case len(memories) == 1 && memories[0].Shared:
			return nil, fmt.Errorf("%w: shared memory", ErrUnsupportedMemory)
		}
		p.hasMemory = len(memories) == 1
	}

	if payload := m.Section(wasmbin.SectionIDGlobal); payload != nil {
		globals, err := wasmbin.DecodeGlobalSection(payload)
		if err != nil {
			return nil, fmt.Errorf("section global: %w", err)
		}
		for i, g := range globals {
			if !g.Type.Mutable {
				continue
			}
			idx := p.importedGlobals + uint32(i)
			switch g.Type.ValType {
			case wasmbin.ValueTypeI32, wasmbin.ValueTypeI64, wasmbin.ValueTypeF32, wasmbin.ValueTypeF64:
			default:
				return nil, fmt.Errorf("%w: global %d is a mutable %s", ErrUnsupportedGlobal, idx, wasmbin.ValueTypeName(g.Type.ValType))
			}
			p.globals = append(p.globals, globalSlot{
				index:   idx,
				valType: g.Type.ValType,
				export:  globalExportPrefix + strconv.FormatUint(uint64(idx), 10),
			})
		}
	}

	if payload := m.Section(wasmbin.SectionIDExport); payload != nil {
		if p.exports, err = wasmbin.DecodeExportSection(payload); err != nil {
			return nil, fmt.Errorf("section export: %w", err)
		}
	}
	for _, name := range []string{opts.InitExport, opts.MainExport} {
		if e := p.export(name); e == nil || e.Type != wasmbin.ExternTypeFunc {
			return nil, fmt.Errorf("%w: function %q", ErrMissingExport, name)
		}
	}
	for _, e := range p.exports {
		if strings.HasPrefix(e.Name, reservedPrefix) {
			return nil, fmt.Errorf("%w: %q", ErrReservedExportName, e.Name)
		}
	}

	instrumented := m.Clone()
	exports := append([]*wasmbin.Export{}, p.exports...)
	if p.hasMemory {
		exports = append(exports, &wasmbin.Export{Type: wasmbin.ExternTypeMemory, Name: MemoryExport, Index: 0})
	}
	for _, g := range p.globals {
		exports = append(exports, &wasmbin.Export{Type: wasmbin.ExternTypeGlobal, Name: g.export, Index: g.index})
	}
	instrumented.SetSection(wasmbin.SectionIDExport, wasmbin.EncodeExportSection(exports))
	p.Instrumented = instrumented.Encode()
	return p, nil
}

func (p *Plan) export(name string) *wasmbin.Export {
	for _, e := range p.exports {
		if e.Name == name {
			return e
		}
	}
	return nil
}
