package snapshot

import (
	"fmt"

	"github.com/Shopify/ruvy/internal/wasmbin"
)

// Image is an emitted snapshot module.
type Image struct {
	Binary []byte
	// Segments is the count of data segments holding captured memory.
	Segments int
}

// Emit rewrites the original guest so that it starts in state s, with the main hook as its "_start" entry point.
// Sections other than those holding memory, globals, exports, data and the start function are copied unchanged.
func (p *Plan) Emit(s *State) (*Image, error) {
	if len(s.Globals) != len(p.globals) {
		return nil, fmt.Errorf("captured %d globals, but the module has %d mutable globals", len(s.Globals), len(p.globals))
	}
	m := p.original.Clone()

	if err := p.emitGlobals(m, s); err != nil {
		return nil, err
	}
	if err := p.emitMemory(m, s); err != nil {
		return nil, err
	}
	segments, err := p.emitData(m, s)
	if err != nil {
		return nil, err
	}

	// The start function already ran in the captured instance.
	m.RemoveSection(wasmbin.SectionIDStart)
	m.SetSection(wasmbin.SectionIDExport, wasmbin.EncodeExportSection(p.emitExports()))

	return &Image{Binary: m.Encode(), Segments: segments}, nil
}

func (p *Plan) emitGlobals(m *wasmbin.Module, s *State) error {
	if len(p.globals) == 0 {
		return nil
	}
	globals, err := wasmbin.DecodeGlobalSection(m.Section(wasmbin.SectionIDGlobal))
	if err != nil {
		return fmt.Errorf("section global: %w", err)
	}

	for i, slot := range p.globals {
		g := globals[slot.index-p.importedGlobals]
		v := s.Globals[i]
		switch slot.valType {
		case wasmbin.ValueTypeI32:
			g.Init = wasmbin.ConstI32(int32(uint32(v)))
		case wasmbin.ValueTypeI64:
			g.Init = wasmbin.ConstI64(int64(v))
		case wasmbin.ValueTypeF32:
			g.Init = wasmbin.ConstF32(uint32(v))
		case wasmbin.ValueTypeF64:
			g.Init = wasmbin.ConstF64(v)
		}
	}
	m.SetSection(wasmbin.SectionIDGlobal, wasmbin.EncodeGlobalSection(globals))
	return nil
}

func (p *Plan) emitMemory(m *wasmbin.Module, s *State) error {
	if !p.hasMemory {
		return nil
	}
	if len(s.Memory)%pageSize != 0 {
		return fmt.Errorf("captured memory of %d bytes is not a whole number of pages", len(s.Memory))
	}
	memories, err := wasmbin.DecodeMemorySection(m.Section(wasmbin.SectionIDMemory))
	if err != nil {
		return fmt.Errorf("section memory: %w", err)
	}

	mem := memories[0]
	pages := uint64(s.Pages())
	if mem.Max != nil && pages > *mem.Max {
		return fmt.Errorf("captured %d pages, but the memory max is %d pages", pages, *mem.Max)
	}
	mem.Min = pages
	m.SetSection(wasmbin.SectionIDMemory, wasmbin.EncodeMemorySection(memories))
	return nil
}

// emitData replaces the data section with segments holding the captured memory.
//
// Active segments of the original were applied and dropped when the captured instance started. Without a data count
// section nothing can refer to segments by index, so they are all removed. Otherwise memory.init and data.drop may
// refer to them, so indices are kept: active segments become empty passive ones, which is the state of a dropped
// segment, and passive segments are kept as is.
func (p *Plan) emitData(m *wasmbin.Module, s *State) (int, error) {
	var segments []*wasmbin.DataSegment
	if m.HasSection(wasmbin.SectionIDDataCount) {
		if payload := m.Section(wasmbin.SectionIDData); payload != nil {
			original, err := wasmbin.DecodeDataSection(payload)
			if err != nil {
				return 0, fmt.Errorf("section data: %w", err)
			}
			for _, d := range original {
				if d.Passive {
					segments = append(segments, d)
				} else {
					segments = append(segments, &wasmbin.DataSegment{Passive: true, Init: []byte{}})
				}
			}
		}
	}

	spans := limitSpans(nonZeroSpans(s.Memory), maxSegments)
	for _, sp := range spans {
		segments = append(segments, &wasmbin.DataSegment{
			Offset: wasmbin.ConstI32(int32(uint32(sp.start))),
			Init:   s.Memory[sp.start:sp.end],
		})
	}

	if m.HasSection(wasmbin.SectionIDDataCount) {
		m.SetSection(wasmbin.SectionIDDataCount, wasmbin.EncodeDataCountSection(uint32(len(segments))))
	}
	if len(segments) == 0 {
		m.RemoveSection(wasmbin.SectionIDData)
	} else {
		m.SetSection(wasmbin.SectionIDData, wasmbin.EncodeDataSection(segments))
	}
	return len(spans), nil
}

// emitExports removes the exports that belong to initialization and points "_start" at the main hook.
func (p *Plan) emitExports() []*wasmbin.Export {
	main := p.export(p.opts.MainExport)
	var exports []*wasmbin.Export
	for _, e := range p.exports {
		switch e.Name {
		case p.opts.MainExport:
		case "_start", "_initialize", p.opts.InitExport:
			continue
		}
		exports = append(exports, e)
	}
	if main.Name != "_start" {
		exports = append(exports, &wasmbin.Export{Type: wasmbin.ExternTypeFunc, Name: "_start", Index: main.Index})
	}
	return exports
}
