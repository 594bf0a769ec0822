package wasmbin

import (
	"bytes"
	"fmt"
	"io"

	"github.com/Shopify/ruvy/internal/leb128"
)

// Export is the binary representation of an export indicated by Type
// See https://www.w3.org/TR/wasm-core-2/#binary-export
type Export struct {
	Type ExternType
	// Name is what the host refers to this definition as.
	Name string
	// Index is the index of the definition to export, the index namespace is by Type
	Index uint32
}

func decodeExport(r *bytes.Reader) (i *Export, err error) {
	i = &Export{}

	if i.Name, _, err = decodeUTF8(r, "export name"); err != nil {
		return nil, err
	}

	b := make([]byte, 1)
	if _, err = io.ReadFull(r, b); err != nil {
		return nil, fmt.Errorf("error decoding export kind: %w", err)
	}

	i.Type = b[0]
	switch i.Type {
	case ExternTypeFunc, ExternTypeTable, ExternTypeMemory, ExternTypeGlobal, ExternTypeTag:
		if i.Index, _, err = leb128.DecodeUint32(r); err != nil {
			return nil, fmt.Errorf("error decoding export index: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: invalid byte for exportdesc: %#x", ErrInvalidByte, b[0])
	}
	return
}

// encodeExport returns the Export encoded in WebAssembly Binary Format.
//
// See https://www.w3.org/TR/wasm-core-2/#export-section%E2%91%A0
func encodeExport(i *Export) []byte {
	data := encodeSizePrefixed([]byte(i.Name))
	data = append(data, i.Type)
	data = append(data, leb128.EncodeUint32(i.Index)...)
	return data
}

// DecodeExportSection decodes the payload of the export section. Export names must be unique.
func DecodeExportSection(payload []byte) ([]*Export, error) {
	exports, err := decodeVector(payload, "export", decodeExport)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(exports))
	for _, e := range exports {
		if _, ok := seen[e.Name]; ok {
			return nil, fmt.Errorf("export[%s] already exists", e.Name)
		}
		seen[e.Name] = struct{}{}
	}
	return exports, nil
}

// EncodeExportSection encodes the payload of the export section.
func EncodeExportSection(exports []*Export) []byte {
	return encodeVector(exports, encodeExport)
}
