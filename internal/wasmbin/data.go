package wasmbin

import (
	"bytes"
	"fmt"
	"io"

	"github.com/Shopify/ruvy/internal/leb128"
)

// DataSegment initializes a range of memory, either at instantiation (active) or via memory.init (passive).
//
// See https://www.w3.org/TR/wasm-core-2/#data-segments%E2%91%A0
type DataSegment struct {
	Passive bool
	// MemoryIndex and Offset only apply to active segments.
	MemoryIndex uint32
	Offset      ConstExpr
	Init        []byte
}

const (
	dataFlagActive         = 0x00
	dataFlagPassive        = 0x01
	dataFlagActiveExplicit = 0x02
)

func decodeDataSegment(r *bytes.Reader) (*DataSegment, error) {
	flag, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("read data segment prefix: %w", err)
	}

	d := &DataSegment{}
	switch flag {
	case dataFlagActive:
	case dataFlagPassive:
		d.Passive = true
	case dataFlagActiveExplicit:
		if d.MemoryIndex, _, err = leb128.DecodeUint32(r); err != nil {
			return nil, fmt.Errorf("read memory index: %v", err)
		}
	default:
		return nil, fmt.Errorf("%w: invalid data segment prefix: %#x", ErrInvalidByte, flag)
	}

	if !d.Passive {
		if d.Offset, err = decodeConstExpr(r); err != nil {
			return nil, fmt.Errorf("read offset expression: %v", err)
		}
	}

	vs, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("get the size of vector: %v", err)
	}
	if int64(vs) > int64(r.Len()) {
		return nil, fmt.Errorf("data size %d exceeds the %d bytes remaining", vs, r.Len())
	}

	d.Init = make([]byte, vs)
	if _, err := io.ReadFull(r, d.Init); err != nil {
		return nil, fmt.Errorf("read bytes for init: %v", err)
	}
	return d, nil
}

func encodeDataSegment(d *DataSegment) (ret []byte) {
	switch {
	case d.Passive:
		ret = append(ret, leb128.EncodeUint32(dataFlagPassive)...)
	case d.MemoryIndex != 0:
		ret = append(ret, leb128.EncodeUint32(dataFlagActiveExplicit)...)
		ret = append(ret, leb128.EncodeUint32(d.MemoryIndex)...)
		ret = append(ret, encodeConstExpr(d.Offset)...)
	default:
		ret = append(ret, leb128.EncodeUint32(dataFlagActive)...)
		ret = append(ret, encodeConstExpr(d.Offset)...)
	}
	ret = append(ret, leb128.EncodeUint32(uint32(len(d.Init)))...)
	ret = append(ret, d.Init...)
	return
}

// DecodeDataSection decodes the payload of the data section.
func DecodeDataSection(payload []byte) ([]*DataSegment, error) {
	return decodeVector(payload, "data", decodeDataSegment)
}

// EncodeDataSection encodes the payload of the data section.
func EncodeDataSection(segments []*DataSegment) []byte {
	return encodeVector(segments, encodeDataSegment)
}
