package wasmbin

import (
	"bytes"
	"fmt"

	"github.com/Shopify/ruvy/internal/leb128"
)

const (
	limitsFlagHasMax = 0x01
	limitsFlagShared = 0x02
	limitsFlag64     = 0x04
)

// Limits are the size bounds of a memory or table.
//
// See https://www.w3.org/TR/wasm-core-2/#limits%E2%91%A6
type Limits struct {
	Min uint64
	Max *uint64
	// Shared is set by the threads proposal.
	Shared bool
	// Is64 is set by the memory64 proposal; Min and Max are then 64-bit.
	Is64 bool
}

// Memory is a memory type. Its Min and Max are in 64KiB pages.
type Memory struct {
	Limits
}

// Table is a table type.
type Table struct {
	ElemType ValueType
	Limits
}

func decodeLimits(r *bytes.Reader) (Limits, error) {
	flag, err := r.ReadByte()
	if err != nil {
		return Limits{}, fmt.Errorf("read leading byte: %v", err)
	}
	if flag&^(limitsFlagHasMax|limitsFlagShared|limitsFlag64) != 0 {
		return Limits{}, fmt.Errorf("%w for limits: %#x", ErrInvalidByte, flag)
	}

	l := Limits{Shared: flag&limitsFlagShared != 0, Is64: flag&limitsFlag64 != 0}
	read := func() (uint64, error) {
		if l.Is64 {
			v, _, err := leb128.DecodeUint64(r)
			return v, err
		}
		v, _, err := leb128.DecodeUint32(r)
		return uint64(v), err
	}

	if l.Min, err = read(); err != nil {
		return Limits{}, fmt.Errorf("read min of limit: %v", err)
	}
	if flag&limitsFlagHasMax != 0 {
		max, err := read()
		if err != nil {
			return Limits{}, fmt.Errorf("read max of limit: %v", err)
		}
		l.Max = &max
	}
	return l, nil
}

func encodeLimits(l Limits) []byte {
	var flag byte
	if l.Max != nil {
		flag |= limitsFlagHasMax
	}
	if l.Shared {
		flag |= limitsFlagShared
	}
	if l.Is64 {
		flag |= limitsFlag64
	}

	enc := func(v uint64) []byte {
		if l.Is64 {
			return leb128.EncodeUint64(v)
		}
		return leb128.EncodeUint32(uint32(v))
	}

	ret := append([]byte{flag}, enc(l.Min)...)
	if l.Max != nil {
		ret = append(ret, enc(*l.Max)...)
	}
	return ret
}

func decodeMemory(r *bytes.Reader) (*Memory, error) {
	l, err := decodeLimits(r)
	if err != nil {
		return nil, err
	}
	if l.Max != nil && l.Min > *l.Max {
		return nil, fmt.Errorf("min %d pages > max %d pages", l.Min, *l.Max)
	}
	return &Memory{Limits: l}, nil
}

func encodeMemory(m *Memory) []byte {
	return encodeLimits(m.Limits)
}

func decodeTable(r *bytes.Reader) (*Table, error) {
	elemType, err := decodeValueType(r)
	if err != nil {
		return nil, fmt.Errorf("read table element type: %w", err)
	}
	if elemType != ValueTypeFuncref && elemType != ValueTypeExternref {
		return nil, fmt.Errorf("%w: table element type must be a reference, but was %s", ErrInvalidByte, ValueTypeName(elemType))
	}
	l, err := decodeLimits(r)
	if err != nil {
		return nil, err
	}
	return &Table{ElemType: elemType, Limits: l}, nil
}

func encodeTable(t *Table) []byte {
	return append([]byte{t.ElemType}, encodeLimits(t.Limits)...)
}

// DecodeMemorySection decodes the payload of the memory section.
//
// See https://www.w3.org/TR/wasm-core-2/#memory-section%E2%91%A0
func DecodeMemorySection(payload []byte) ([]*Memory, error) {
	return decodeVector(payload, "memory", decodeMemory)
}

// EncodeMemorySection encodes the payload of the memory section.
func EncodeMemorySection(memories []*Memory) []byte {
	return encodeVector(memories, encodeMemory)
}
