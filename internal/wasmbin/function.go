package wasmbin

import (
	"bytes"
	"fmt"

	"github.com/Shopify/ruvy/internal/leb128"
)

// FunctionType is a possibly empty function signature.
//
// See https://www.w3.org/TR/wasm-core-2/#function-types%E2%91%A0
type FunctionType struct {
	Params  []ValueType
	Results []ValueType
}

func decodeValueTypes(r *bytes.Reader) ([]ValueType, error) {
	count, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("could not read parameter count: %w", err)
	}
	ret := make([]ValueType, 0, min(int(count), r.Len()))
	for i := uint32(0); i < count; i++ {
		vt, err := decodeValueType(r)
		if err != nil {
			return nil, err
		}
		ret = append(ret, vt)
	}
	return ret, nil
}

func decodeFunctionType(r *bytes.Reader) (*FunctionType, error) {
	b, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("read leading byte: %w", err)
	}
	if b != 0x60 {
		return nil, fmt.Errorf("%w: %#x != 0x60", ErrInvalidByte, b)
	}

	params, err := decodeValueTypes(r)
	if err != nil {
		return nil, fmt.Errorf("could not read params: %w", err)
	}
	results, err := decodeValueTypes(r)
	if err != nil {
		return nil, fmt.Errorf("could not read results: %w", err)
	}
	return &FunctionType{Params: params, Results: results}, nil
}

// encodeFunctionType returns the FunctionType encoded in WebAssembly Binary Format.
//
// See https://www.w3.org/TR/wasm-core-2/#binary-functype
func encodeFunctionType(t *FunctionType) []byte {
	data := append([]byte{0x60}, encodeSizePrefixed(t.Params)...)
	return append(data, encodeSizePrefixed(t.Results)...)
}

// DecodeTypeSection decodes the payload of the type section.
func DecodeTypeSection(payload []byte) ([]*FunctionType, error) {
	return decodeVector(payload, "type", decodeFunctionType)
}

// EncodeTypeSection encodes the payload of the type section.
func EncodeTypeSection(types []*FunctionType) []byte {
	return encodeVector(types, encodeFunctionType)
}

// DecodeFunctionSection decodes the payload of the function section: the type index of each defined function.
func DecodeFunctionSection(payload []byte) ([]uint32, error) {
	return decodeVector(payload, "function", decodeIndex)
}

// EncodeFunctionSection encodes the payload of the function section.
func EncodeFunctionSection(typeIndices []uint32) []byte {
	return encodeVector(typeIndices, encodeIndex)
}

// DecodeStartSection decodes the payload of the start section: the index of the start function.
func DecodeStartSection(payload []byte) (uint32, error) {
	return decodeSingleIndex(payload, "start")
}

// EncodeStartSection encodes the payload of the start section.
func EncodeStartSection(funcIndex uint32) []byte {
	return encodeIndex(funcIndex)
}

// DecodeDataCountSection decodes the payload of the data count section.
//
// See https://www.w3.org/TR/wasm-core-2/#data-count-section%E2%91%A0
func DecodeDataCountSection(payload []byte) (uint32, error) {
	return decodeSingleIndex(payload, "data count")
}

// EncodeDataCountSection encodes the payload of the data count section.
func EncodeDataCountSection(count uint32) []byte {
	return encodeIndex(count)
}

func decodeSingleIndex(payload []byte, what string) (uint32, error) {
	v, n, err := leb128.LoadUint32(payload)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", what, err)
	}
	if int(n) != len(payload) {
		return 0, fmt.Errorf("%d trailing bytes after %s", len(payload)-int(n), what)
	}
	return v, nil
}
