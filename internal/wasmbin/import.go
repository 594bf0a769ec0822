package wasmbin

import (
	"bytes"
	"fmt"
	"io"

	"github.com/Shopify/ruvy/internal/leb128"
)

// ExternType classifies imports and exports with their respective types.
//
// See https://www.w3.org/TR/wasm-core-2/#external-types%E2%91%A0
type ExternType = byte

const (
	ExternTypeFunc   ExternType = 0x00
	ExternTypeTable  ExternType = 0x01
	ExternTypeMemory ExternType = 0x02
	ExternTypeGlobal ExternType = 0x03
	ExternTypeTag    ExternType = 0x04
)

// ExternTypeName returns the name of the WebAssembly Text Format field of the given type.
func ExternTypeName(et ExternType) string {
	switch et {
	case ExternTypeFunc:
		return "func"
	case ExternTypeTable:
		return "table"
	case ExternTypeMemory:
		return "memory"
	case ExternTypeGlobal:
		return "global"
	case ExternTypeTag:
		return "tag"
	}
	return fmt.Sprintf("%#x", et)
}

// Import is the binary representation of an import indicated by Type
// See https://www.w3.org/TR/wasm-core-2/#binary-import
type Import struct {
	Type ExternType
	// Module is the possibly empty primary namespace of this import
	Module string
	// Name is the possibly empty secondary namespace of this import
	Name string
	// DescFunc is the index in the type section when Type equals ExternTypeFunc
	DescFunc uint32
	// DescTable is the inlined Table when Type equals ExternTypeTable
	DescTable *Table
	// DescMem is the inlined Memory when Type equals ExternTypeMemory
	DescMem *Memory
	// DescGlobal is the inlined GlobalType when Type equals ExternTypeGlobal
	DescGlobal *GlobalType
	// DescTag is the index in the type section when Type equals ExternTypeTag
	DescTag uint32
}

func decodeImport(r *bytes.Reader) (i *Import, err error) {
	i = &Import{}
	if i.Module, _, err = decodeUTF8(r, "import module"); err != nil {
		return nil, err
	}

	if i.Name, _, err = decodeUTF8(r, "import name"); err != nil {
		return nil, err
	}

	b := make([]byte, 1)
	if _, err = io.ReadFull(r, b); err != nil {
		return nil, fmt.Errorf("error decoding import kind: %w", err)
	}

	i.Type = b[0]
	switch i.Type {
	case ExternTypeFunc:
		if i.DescFunc, _, err = leb128.DecodeUint32(r); err != nil {
			return nil, fmt.Errorf("error decoding import func typeindex: %w", err)
		}
	case ExternTypeTable:
		if i.DescTable, err = decodeTable(r); err != nil {
			return nil, fmt.Errorf("error decoding import table desc: %w", err)
		}
	case ExternTypeMemory:
		if i.DescMem, err = decodeMemory(r); err != nil {
			return nil, fmt.Errorf("error decoding import mem desc: %w", err)
		}
	case ExternTypeGlobal:
		if i.DescGlobal, err = decodeGlobalType(r); err != nil {
			return nil, fmt.Errorf("error decoding import global desc: %w", err)
		}
	case ExternTypeTag:
		if _, err = r.ReadByte(); err != nil { // attribute, always zero
			return nil, fmt.Errorf("error decoding import tag attribute: %w", err)
		}
		if i.DescTag, _, err = leb128.DecodeUint32(r); err != nil {
			return nil, fmt.Errorf("error decoding import tag typeindex: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: invalid byte for importdesc: %#x", ErrInvalidByte, b[0])
	}
	return
}

// encodeImport returns the Import encoded in WebAssembly Binary Format.
//
// See https://www.w3.org/TR/wasm-core-2/#binary-import
func encodeImport(i *Import) []byte {
	data := encodeSizePrefixed([]byte(i.Module))
	data = append(data, encodeSizePrefixed([]byte(i.Name))...)
	data = append(data, i.Type)
	switch i.Type {
	case ExternTypeFunc:
		data = append(data, leb128.EncodeUint32(i.DescFunc)...)
	case ExternTypeTable:
		data = append(data, encodeTable(i.DescTable)...)
	case ExternTypeMemory:
		data = append(data, encodeMemory(i.DescMem)...)
	case ExternTypeGlobal:
		data = append(data, encodeGlobalType(i.DescGlobal)...)
	case ExternTypeTag:
		data = append(data, 0x00)
		data = append(data, leb128.EncodeUint32(i.DescTag)...)
	default:
		panic(fmt.Errorf("invalid externtype: %s", ExternTypeName(i.Type)))
	}
	return data
}

// DecodeImportSection decodes the payload of the import section.
func DecodeImportSection(payload []byte) ([]*Import, error) {
	return decodeVector(payload, "import", decodeImport)
}

// EncodeImportSection encodes the payload of the import section.
func EncodeImportSection(imports []*Import) []byte {
	return encodeVector(imports, encodeImport)
}
