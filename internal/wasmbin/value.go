package wasmbin

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/Shopify/ruvy/internal/leb128"
)

// ValueType is the binary encoding of a type such as i32
// See https://www.w3.org/TR/wasm-core-2/#binary-valtype
type ValueType = byte

const (
	ValueTypeI32       ValueType = 0x7f
	ValueTypeI64       ValueType = 0x7e
	ValueTypeF32       ValueType = 0x7d
	ValueTypeF64       ValueType = 0x7c
	ValueTypeV128      ValueType = 0x7b
	ValueTypeFuncref   ValueType = 0x70
	ValueTypeExternref ValueType = 0x6f
)

// ValueTypeName returns the type name of the given ValueType as a string.
func ValueTypeName(t ValueType) string {
	switch t {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	case ValueTypeF32:
		return "f32"
	case ValueTypeF64:
		return "f64"
	case ValueTypeV128:
		return "v128"
	case ValueTypeFuncref:
		return "funcref"
	case ValueTypeExternref:
		return "externref"
	}
	return fmt.Sprintf("unknown(%#x)", t)
}

func decodeValueType(r *bytes.Reader) (ValueType, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, fmt.Errorf("read value type: %w", err)
	}
	switch b {
	case ValueTypeI32, ValueTypeI64, ValueTypeF32, ValueTypeF64, ValueTypeV128, ValueTypeFuncref, ValueTypeExternref:
		return b, nil
	}
	return 0, fmt.Errorf("%w: invalid value type: %#x", ErrInvalidByte, b)
}

// decodeUTF8 decodes a size prefixed string from the reader, returning it and the count of bytes read.
// contextFormat and contextArgs apply an error format when present
func decodeUTF8(r *bytes.Reader, contextFormat string, contextArgs ...interface{}) (string, uint32, error) {
	size, sizeOfSize, err := leb128.DecodeUint32(r)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read %s size: %w", fmt.Sprintf(contextFormat, contextArgs...), err)
	}

	if size == 0 {
		return "", uint32(sizeOfSize), nil
	} else if int64(size) > int64(r.Len()) {
		return "", 0, fmt.Errorf("%s size %d exceeds the %d bytes remaining", fmt.Sprintf(contextFormat, contextArgs...), size, r.Len())
	}

	buf := make([]byte, size)
	if _, err = io.ReadFull(r, buf); err != nil {
		return "", 0, fmt.Errorf("failed to read %s: %w", fmt.Sprintf(contextFormat, contextArgs...), err)
	}

	if !utf8.Valid(buf) {
		return "", 0, fmt.Errorf("%s is not valid UTF-8", fmt.Sprintf(contextFormat, contextArgs...))
	}

	return string(buf), size + uint32(sizeOfSize), nil
}

// encodeSizePrefixed encodes the data with a leading LEB128 size
func encodeSizePrefixed(data []byte) []byte {
	size := leb128.EncodeUint32(uint32(len(data)))
	return append(size, data...)
}

// decodeVector decodes a whole section payload that is a vector of items, failing on trailing bytes.
func decodeVector[T any](payload []byte, what string, decode func(r *bytes.Reader) (T, error)) ([]T, error) {
	r := bytes.NewReader(payload)
	count, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("get size of %s vector: %w", what, err)
	}

	ret := make([]T, 0, min(int(count), r.Len()))
	for i := uint32(0); i < count; i++ {
		v, err := decode(r)
		if err != nil {
			return nil, fmt.Errorf("read %s[%d]: %w", what, i, err)
		}
		ret = append(ret, v)
	}

	if r.Len() != 0 {
		return nil, fmt.Errorf("%d trailing bytes after %s vector", r.Len(), what)
	}
	return ret, nil
}

func encodeVector[T any](items []T, encode func(T) []byte) []byte {
	ret := leb128.EncodeUint32(uint32(len(items)))
	for _, item := range items {
		ret = append(ret, encode(item)...)
	}
	return ret
}

func decodeIndex(r *bytes.Reader) (uint32, error) {
	idx, _, err := leb128.DecodeUint32(r)
	return idx, err
}

func encodeIndex(idx uint32) []byte {
	return leb128.EncodeUint32(idx)
}

// VectorLen returns the item count of an encoded vector, such as a section payload. A nil payload is an empty vector.
func VectorLen(payload []byte) (uint32, error) {
	if payload == nil {
		return 0, nil
	}
	count, _, err := leb128.LoadUint32(payload)
	if err != nil {
		return 0, fmt.Errorf("get size of vector: %w", err)
	}
	return count, nil
}

// ConcatVectors joins two encoded vectors without decoding their items, so the items of a are kept byte-for-byte.
// A nil a is an empty vector.
func ConcatVectors(a, b []byte) ([]byte, error) {
	if a == nil {
		return b, nil
	}
	countA, n, err := leb128.LoadUint32(a)
	if err != nil {
		return nil, fmt.Errorf("get size of vector: %w", err)
	}
	countB, m, err := leb128.LoadUint32(b)
	if err != nil {
		return nil, fmt.Errorf("get size of vector: %w", err)
	}
	ret := leb128.EncodeUint32(countA + countB)
	ret = append(ret, a[n:]...)
	return append(ret, b[m:]...), nil
}
