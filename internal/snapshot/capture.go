package snapshot

import (
	"fmt"

	"github.com/tetratelabs/wazero/api"
)

// State is the mutable state of an initialized instance.
type State struct {
	// Memory is a copy of memory 0, or nil if the guest has no memory.
	Memory []byte
	// Globals are the raw values of the mutable globals, in the order of the plan. Values are encoded as with
	// api.EncodeI32 and friends.
	Globals []uint64
}

// Pages returns the size of the captured memory in 64KiB pages.
func (s *State) Pages() uint32 {
	return uint32(len(s.Memory) / pageSize)
}

const pageSize = 65536

// Capture copies the state of mod, which must be an instance of p.Instrumented whose initialize hook returned.
func (p *Plan) Capture(mod api.Module) (*State, error) {
	s := &State{Globals: make([]uint64, len(p.globals))}

	if p.hasMemory {
		mem := mod.ExportedMemory(MemoryExport)
		if mem == nil {
			return nil, fmt.Errorf("%w: memory %q", ErrMissingExport, MemoryExport)
		}
		view, ok := mem.Read(0, mem.Size())
		if !ok {
			return nil, fmt.Errorf("read %d bytes of memory", mem.Size())
		}
		s.Memory = make([]byte, len(view))
		copy(s.Memory, view)
	}

	for i, g := range p.globals {
		global := mod.ExportedGlobal(g.export)
		if global == nil {
			return nil, fmt.Errorf("%w: global %q", ErrMissingExport, g.export)
		}
		s.Globals[i] = global.Get()
	}
	return s, nil
}
