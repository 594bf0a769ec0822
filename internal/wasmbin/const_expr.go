package wasmbin

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/Shopify/ruvy/internal/leb128"
)

// Opcodes that may appear in a constant expression.
const (
	OpcodeEnd       byte = 0x0b
	OpcodeGlobalGet byte = 0x23
	OpcodeI32Const  byte = 0x41
	OpcodeI64Const  byte = 0x42
	OpcodeF32Const  byte = 0x43
	OpcodeF64Const  byte = 0x44
	OpcodeI32Add    byte = 0x6a
	OpcodeI32Sub    byte = 0x6b
	OpcodeI32Mul    byte = 0x6c
	OpcodeI64Add    byte = 0x7c
	OpcodeI64Sub    byte = 0x7d
	OpcodeI64Mul    byte = 0x7e
	OpcodeRefNull   byte = 0xd0
	OpcodeRefFunc   byte = 0xd2
	OpcodeVecPrefix byte = 0xfd

	opcodeVecV128Const uint32 = 0x0c
)

// ConstExpr is a constant expression, such as a global initializer or a data segment offset.
//
// See https://www.w3.org/TR/wasm-core-2/#constant-expressions%E2%91%A0
type ConstExpr struct {
	// Data holds the encoded instructions, excluding the terminating end opcode.
	Data []byte
}

// Opcode returns the first instruction of the expression.
func (c ConstExpr) Opcode() byte {
	if len(c.Data) == 0 {
		return OpcodeEnd
	}
	return c.Data[0]
}

// I32 returns the value of a single i32.const instruction.
func (c ConstExpr) I32() (int32, bool) {
	if c.Opcode() != OpcodeI32Const {
		return 0, false
	}
	v, n, err := leb128.LoadInt32(c.Data[1:])
	if err != nil || int(n) != len(c.Data)-1 {
		return 0, false
	}
	return v, true
}

// ConstI32 returns an expression of a single i32.const instruction.
func ConstI32(v int32) ConstExpr {
	return ConstExpr{Data: append([]byte{OpcodeI32Const}, leb128.EncodeInt32(v)...)}
}

// ConstI64 returns an expression of a single i64.const instruction.
func ConstI64(v int64) ConstExpr {
	return ConstExpr{Data: append([]byte{OpcodeI64Const}, leb128.EncodeInt64(v)...)}
}

// ConstF32 returns an expression of a single f32.const instruction with the given IEEE 754 bits.
func ConstF32(bits uint32) ConstExpr {
	return ConstExpr{Data: binary.LittleEndian.AppendUint32([]byte{OpcodeF32Const}, bits)}
}

// ConstF64 returns an expression of a single f64.const instruction with the given IEEE 754 bits.
func ConstF64(bits uint64) ConstExpr {
	return ConstExpr{Data: binary.LittleEndian.AppendUint64([]byte{OpcodeF64Const}, bits)}
}

func decodeConstExpr(r *bytes.Reader) (ConstExpr, error) {
	start := r.Size() - int64(r.Len())
	for {
		opcode, err := r.ReadByte()
		if err != nil {
			return ConstExpr{}, fmt.Errorf("read opcode: %v", err)
		}

		switch opcode {
		case OpcodeEnd:
			end := r.Size() - int64(r.Len()) - 1
			if end == start {
				return ConstExpr{}, fmt.Errorf("empty constant expression")
			}
			data := make([]byte, end-start)
			if _, err = r.ReadAt(data, start); err != nil {
				return ConstExpr{}, fmt.Errorf("error re-buffering ConstExpr.Data")
			}
			return ConstExpr{Data: data}, nil
		case OpcodeI32Const:
			_, _, err = leb128.DecodeInt32(r)
		case OpcodeI64Const:
			_, _, err = leb128.DecodeInt64(r)
		case OpcodeF32Const:
			_, err = io.CopyN(io.Discard, r, 4)
		case OpcodeF64Const:
			_, err = io.CopyN(io.Discard, r, 8)
		case OpcodeGlobalGet, OpcodeRefFunc:
			_, _, err = leb128.DecodeUint32(r)
		case OpcodeRefNull:
			// heap type is an s33
			_, _, err = leb128.DecodeInt64(r)
		case OpcodeI32Add, OpcodeI32Sub, OpcodeI32Mul, OpcodeI64Add, OpcodeI64Sub, OpcodeI64Mul:
		case OpcodeVecPrefix:
			var sub uint32
			if sub, _, err = leb128.DecodeUint32(r); err == nil {
				if sub != opcodeVecV128Const {
					return ConstExpr{}, fmt.Errorf("%w for const expression vector opcode: %#x", ErrInvalidByte, sub)
				}
				_, err = io.CopyN(io.Discard, r, 16)
			}
		default:
			return ConstExpr{}, fmt.Errorf("%w for const expression opcode: %#x", ErrInvalidByte, opcode)
		}

		if err != nil {
			return ConstExpr{}, fmt.Errorf("read value: %v", err)
		}
	}
}

func encodeConstExpr(c ConstExpr) []byte {
	ret := make([]byte, 0, len(c.Data)+1)
	ret = append(ret, c.Data...)
	return append(ret, OpcodeEnd)
}
