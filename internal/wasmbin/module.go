// Package wasmbin reads and writes WebAssembly binaries at section granularity.
//
// A Module keeps every section as its raw payload, so sections that are not
// rewritten are re-encoded byte-for-byte. Typed decoders and encoders exist for
// the sections that callers need to inspect or replace.
package wasmbin

import (
	"bytes"
	"fmt"
	"io"

	"github.com/Shopify/ruvy/internal/leb128"
)

// Section is one section of a Module.
type Section struct {
	ID SectionID
	// Payload is the section content, excluding the ID and size prefix. For custom sections it starts with the
	// size-prefixed name.
	Payload []byte
}

// Module is a WebAssembly binary split into its sections, in the order they were read.
type Module struct {
	Sections []*Section
}

// DecodeModule splits the binary into sections. Non-custom sections must be known, must not repeat and must be in
// the order the binary format requires.
//
// See https://www.w3.org/TR/wasm-core-2/#binary-module
func DecodeModule(binary []byte) (*Module, error) {
	r := bytes.NewReader(binary)

	buf := make([]byte, 4)
	if _, err := io.ReadFull(r, buf); err != nil || !bytes.Equal(buf, Magic) {
		return nil, ErrInvalidMagic
	}
	if _, err := io.ReadFull(r, buf); err != nil || !bytes.Equal(buf, version) {
		return nil, ErrInvalidVersion
	}

	m := &Module{}
	lastOrder := 0
	for {
		id, err := r.ReadByte()
		if err == io.EOF {
			return m, nil
		} else if err != nil {
			return nil, fmt.Errorf("read section id: %w", err)
		}

		size, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return nil, fmt.Errorf("get size of section %s: %v", SectionIDName(id), err)
		}
		if int64(size) > int64(r.Len()) {
			return nil, fmt.Errorf("section %s: size %d exceeds the %d bytes remaining", SectionIDName(id), size, r.Len())
		}

		if id != SectionIDCustom {
			order := sectionOrder(id)
			if order == 0 {
				return nil, fmt.Errorf("%w: invalid section id: %#x", ErrInvalidByte, id)
			} else if order <= lastOrder {
				return nil, fmt.Errorf("section %s is duplicated or out of order", SectionIDName(id))
			}
			lastOrder = order
		}

		payload := make([]byte, size)
		if _, err = io.ReadFull(r, payload); err != nil {
			return nil, fmt.Errorf("read section %s: %w", SectionIDName(id), err)
		}
		if id == SectionIDCustom {
			if _, err = CustomSectionName(payload); err != nil {
				return nil, err
			}
		}
		m.Sections = append(m.Sections, &Section{ID: id, Payload: payload})
	}
}

// Encode returns the module in the WebAssembly Binary Format.
func (m *Module) Encode() []byte {
	size := len(Magic) + len(version)
	for _, s := range m.Sections {
		size += 6 + len(s.Payload)
	}
	ret := make([]byte, 0, size)
	ret = append(ret, Magic...)
	ret = append(ret, version...)
	for _, s := range m.Sections {
		ret = append(ret, s.ID)
		ret = append(ret, encodeSizePrefixed(s.Payload)...)
	}
	return ret
}

// Clone returns a copy of the module whose section list can be changed without affecting m.
// Payloads are shared, so callers replace them rather than mutating them in place.
func (m *Module) Clone() *Module {
	ret := &Module{Sections: make([]*Section, len(m.Sections))}
	for i, s := range m.Sections {
		c := *s
		ret.Sections[i] = &c
	}
	return ret
}

// Section returns the payload of the non-custom section with the given ID, or nil if the module doesn't have one.
func (m *Module) Section(id SectionID) []byte {
	if s := m.section(id); s != nil {
		return s.Payload
	}
	return nil
}

// HasSection returns true when the module contains the non-custom section, even if its payload is empty.
func (m *Module) HasSection(id SectionID) bool {
	return m.section(id) != nil
}

func (m *Module) section(id SectionID) *Section {
	if id == SectionIDCustom {
		return nil
	}
	for _, s := range m.Sections {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// SetSection replaces the payload of the non-custom section with the given ID, or inserts a new section at the
// position the binary format requires.
func (m *Module) SetSection(id SectionID, payload []byte) {
	if id == SectionIDCustom {
		panic("BUG: custom sections are not addressed by ID")
	}
	if s := m.section(id); s != nil {
		s.Payload = payload
		return
	}

	order := sectionOrder(id)
	pos := len(m.Sections)
	for i, s := range m.Sections {
		if s.ID != SectionIDCustom && sectionOrder(s.ID) > order {
			pos = i
			break
		}
	}
	m.Sections = append(m.Sections, nil)
	copy(m.Sections[pos+1:], m.Sections[pos:])
	m.Sections[pos] = &Section{ID: id, Payload: payload}
}

// RemoveSection removes the non-custom section with the given ID, if present.
func (m *Module) RemoveSection(id SectionID) {
	for i, s := range m.Sections {
		if s.ID == id && id != SectionIDCustom {
			m.Sections = append(m.Sections[:i], m.Sections[i+1:]...)
			return
		}
	}
}

// CustomSectionName returns the name that prefixes a custom section payload.
func CustomSectionName(payload []byte) (string, error) {
	name, _, err := decodeUTF8(bytes.NewReader(payload), "custom section name")
	return name, err
}
