package wasmbin

import "fmt"

// SectionID identifies the sections of a Module in the WebAssembly Binary Format.
//
// See https://www.w3.org/TR/wasm-core-2/#sections%E2%91%A0
type SectionID = byte

const (
	// SectionIDCustom includes the standard defined NameSection and possibly others not defined in the standard.
	SectionIDCustom SectionID = iota // don't add anything not in https://www.w3.org/TR/wasm-core-2/#sections%E2%91%A0
	SectionIDType
	SectionIDImport
	SectionIDFunction
	SectionIDTable
	SectionIDMemory
	SectionIDGlobal
	SectionIDExport
	SectionIDStart
	SectionIDElement
	SectionIDCode
	SectionIDData
	SectionIDDataCount
	// SectionIDTag is defined by the exception-handling proposal.
	SectionIDTag
)

// SectionIDName returns the canonical name of a module section.
// https://www.w3.org/TR/wasm-core-2/#sections%E2%91%A0
func SectionIDName(sectionID SectionID) string {
	switch sectionID {
	case SectionIDCustom:
		return "custom"
	case SectionIDType:
		return "type"
	case SectionIDImport:
		return "import"
	case SectionIDFunction:
		return "function"
	case SectionIDTable:
		return "table"
	case SectionIDMemory:
		return "memory"
	case SectionIDGlobal:
		return "global"
	case SectionIDExport:
		return "export"
	case SectionIDStart:
		return "start"
	case SectionIDElement:
		return "element"
	case SectionIDCode:
		return "code"
	case SectionIDData:
		return "data"
	case SectionIDDataCount:
		return "data_count"
	case SectionIDTag:
		return "tag"
	}
	return fmt.Sprintf("unknown(%#x)", sectionID)
}

// sectionOrder returns the position a non-custom section must take in a module, or zero if the ID is unknown.
// The data count and tag sections were added after the MVP, so their IDs don't follow their position.
func sectionOrder(id SectionID) int {
	switch id {
	case SectionIDType:
		return 1
	case SectionIDImport:
		return 2
	case SectionIDFunction:
		return 3
	case SectionIDTable:
		return 4
	case SectionIDMemory:
		return 5
	case SectionIDTag:
		return 6
	case SectionIDGlobal:
		return 7
	case SectionIDExport:
		return 8
	case SectionIDStart:
		return 9
	case SectionIDElement:
		return 10
	case SectionIDDataCount:
		return 11
	case SectionIDCode:
		return 12
	case SectionIDData:
		return 13
	}
	return 0
}
