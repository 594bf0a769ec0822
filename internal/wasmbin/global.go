package wasmbin

import (
	"bytes"
	"fmt"
)

// GlobalType is the type of a global, with its mutability.
//
// See https://www.w3.org/TR/wasm-core-2/#global-types%E2%91%A0
type GlobalType struct {
	ValType ValueType
	Mutable bool
}

// Global is a global defined by the module, with its initializer.
type Global struct {
	Type *GlobalType
	Init ConstExpr
}

func decodeGlobalType(r *bytes.Reader) (*GlobalType, error) {
	vt, err := decodeValueType(r)
	if err != nil {
		return nil, err
	}

	mut, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("read mutablity: %w", err)
	}

	ret := &GlobalType{ValType: vt}
	switch mut {
	case 0x00: // not mutable
	case 0x01:
		ret.Mutable = true
	default:
		return nil, fmt.Errorf("%w for mutability: %#x != 0x00 or 0x01", ErrInvalidByte, mut)
	}
	return ret, nil
}

func encodeGlobalType(t *GlobalType) []byte {
	if t.Mutable {
		return []byte{t.ValType, 0x01}
	}
	return []byte{t.ValType, 0x00}
}

func decodeGlobal(r *bytes.Reader) (*Global, error) {
	gt, err := decodeGlobalType(r)
	if err != nil {
		return nil, err
	}

	init, err := decodeConstExpr(r)
	if err != nil {
		return nil, err
	}

	return &Global{Type: gt, Init: init}, nil
}

func encodeGlobal(g *Global) []byte {
	return append(encodeGlobalType(g.Type), encodeConstExpr(g.Init)...)
}

// DecodeGlobalSection decodes the payload of the global section.
//
// See https://www.w3.org/TR/wasm-core-2/#global-section%E2%91%A0
func DecodeGlobalSection(payload []byte) ([]*Global, error) {
	return decodeVector(payload, "global", decodeGlobal)
}

// EncodeGlobalSection encodes the payload of the global section.
func EncodeGlobalSection(globals []*Global) []byte {
	return encodeVector(globals, encodeGlobal)
}
