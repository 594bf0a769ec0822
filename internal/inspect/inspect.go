// Package inspect summarizes a WebAssembly module, such as one produced by ruvy.Build, for display.
package inspect

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"

	"github.com/Shopify/ruvy/internal/wasmbin"
)

// Section is one section of the module, in binary order.
type Section struct {
	Name string
	Size int
}

// Export is one export of the module.
type Export struct {
	Kind  string
	Name  string
	Index uint32
}

// Summary describes the parts of a module that matter for a snapshot.
type Summary struct {
	Sections       []Section
	Exports        []Export
	MemoryPages    uint64
	HasMemory      bool
	Globals        int
	MutableGlobals int
	DataSegments   int
	DataBytes      int
}

// Summarize decodes the module far enough to fill a Summary.
func Summarize(bin []byte) (*Summary, error) {
	m, err := wasmbin.DecodeModule(bin)
	if err != nil {
		return nil, err
	}

	s := &Summary{}
	for _, sec := range m.Sections {
		name := wasmbin.SectionIDName(sec.ID)
		if sec.ID == wasmbin.SectionIDCustom {
			if n, err := wasmbin.CustomSectionName(sec.Payload); err == nil {
				name = fmt.Sprintf("%s %q", name, n)
			}
		}
		s.Sections = append(s.Sections, Section{Name: name, Size: len(sec.Payload)})
	}

	if payload := m.Section(wasmbin.SectionIDMemory); payload != nil {
		memories, err := wasmbin.DecodeMemorySection(payload)
		if err != nil {
			return nil, fmt.Errorf("section memory: %w", err)
		}
		if len(memories) > 0 {
			s.HasMemory = true
			s.MemoryPages = memories[0].Min
		}
	}

	if payload := m.Section(wasmbin.SectionIDGlobal); payload != nil {
		globals, err := wasmbin.DecodeGlobalSection(payload)
		if err != nil {
			return nil, fmt.Errorf("section global: %w", err)
		}
		s.Globals = len(globals)
		for _, g := range globals {
			if g.Type.Mutable {
				s.MutableGlobals++
			}
		}
	}

	if payload := m.Section(wasmbin.SectionIDExport); payload != nil {
		exports, err := wasmbin.DecodeExportSection(payload)
		if err != nil {
			return nil, fmt.Errorf("section export: %w", err)
		}
		for _, e := range exports {
			s.Exports = append(s.Exports, Export{Kind: wasmbin.ExternTypeName(e.Type), Name: e.Name, Index: e.Index})
		}
	}

	if payload := m.Section(wasmbin.SectionIDData); payload != nil {
		segments, err := wasmbin.DecodeDataSection(payload)
		if err != nil {
			return nil, fmt.Errorf("section data: %w", err)
		}
		s.DataSegments = len(segments)
		for _, d := range segments {
			s.DataBytes += len(d.Init)
		}
	}
	return s, nil
}

var (
	rootStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)
	infoStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Italic(true)
	branchStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func branch(title, info string) *tree.Tree {
	return tree.New().Root(lipgloss.JoinHorizontal(lipgloss.Top, headerStyle.Render(title), " ", infoStyle.Render(info)))
}

// Tree renders the summary under a root labeled name.
func (s *Summary) Tree(name string) *tree.Tree {
	t := tree.New().
		Root(rootStyle.Render(name)).
		Enumerator(tree.RoundedEnumerator).
		EnumeratorStyle(branchStyle)

	sections := branch("Sections", fmt.Sprintf("(%d)", len(s.Sections)))
	for _, sec := range s.Sections {
		sections.Child(fmt.Sprintf("%s %s", sec.Name, infoStyle.Render(fmt.Sprintf("%d bytes", sec.Size))))
	}

	exports := branch("Exports", fmt.Sprintf("(%d)", len(s.Exports)))
	for _, e := range s.Exports {
		exports.Child(fmt.Sprintf("%s %s[%d]", e.Name, e.Kind, e.Index))
	}

	memory := "none"
	if s.HasMemory {
		memory = fmt.Sprintf("%d pages", s.MemoryPages)
	}

	return t.Child(
		sections,
		exports,
		branch("Memory", memory),
		branch("Globals", fmt.Sprintf("%d, %d mutable", s.Globals, s.MutableGlobals)),
		branch("Data", fmt.Sprintf("%d segments, %d bytes", s.DataSegments, s.DataBytes)),
	)
}
