package wasmbin

import "github.com/Shopify/ruvy/internal/leb128"

// Builders for the instructions of generated function bodies. Each returns the encoded instruction, so bodies are
// written as Concat(I32Const(1), GlobalSet(0), ...).
//
// See https://www.w3.org/TR/wasm-core-2/#instructions%E2%91%A6

const (
	opcodeUnreachable byte = 0x00
	opcodeLoop        byte = 0x03
	opcodeIf          byte = 0x04
	opcodeBr          byte = 0x0c
	opcodeBrIf        byte = 0x0d
	opcodeCall        byte = 0x10
	opcodeDrop        byte = 0x1a
	opcodeLocalGet    byte = 0x20
	opcodeLocalSet    byte = 0x21
	opcodeGlobalSet   byte = 0x24
	opcodeI32Load     byte = 0x28
	opcodeI32Load8U   byte = 0x2d
	opcodeI32Store    byte = 0x36
	opcodeI32Store8   byte = 0x3a
	opcodeI32Eqz      byte = 0x45
	opcodeMiscPrefix  byte = 0xfc

	opcodeMiscMemoryInit uint32 = 8

	blockTypeEmpty byte = 0x40
)

var (
	Drop        = []byte{opcodeDrop}
	Unreachable = []byte{opcodeUnreachable}
	I32Add      = []byte{OpcodeI32Add}
	I32Eqz      = []byte{opcodeI32Eqz}
)

// Concat joins instructions into a sequence.
func Concat(instructions ...[]byte) (ret []byte) {
	for _, i := range instructions {
		ret = append(ret, i...)
	}
	return
}

func withIndex(opcode byte, idx uint32) []byte {
	return append([]byte{opcode}, leb128.EncodeUint32(idx)...)
}

// memarg encodes the alignment exponent and offset of a memory access.
func memarg(opcode byte, align, offset uint32) []byte {
	return append([]byte{opcode, byte(align)}, leb128.EncodeUint32(offset)...)
}

// I32Const pushes v.
func I32Const(v int32) []byte {
	return append([]byte{OpcodeI32Const}, leb128.EncodeInt32(v)...)
}

// Call calls the function at idx.
func Call(idx uint32) []byte {
	return withIndex(opcodeCall, idx)
}

// LocalGet pushes the local, or parameter, at idx.
func LocalGet(idx uint32) []byte {
	return withIndex(opcodeLocalGet, idx)
}

// LocalSet pops into the local at idx.
func LocalSet(idx uint32) []byte {
	return withIndex(opcodeLocalSet, idx)
}

// GlobalGet pushes the global at idx.
func GlobalGet(idx uint32) []byte {
	return withIndex(OpcodeGlobalGet, idx)
}

// GlobalSet pops into the global at idx.
func GlobalSet(idx uint32) []byte {
	return withIndex(opcodeGlobalSet, idx)
}

// I32Load pops an address and pushes the i32 at address+offset.
func I32Load(offset uint32) []byte {
	return memarg(opcodeI32Load, 2, offset)
}

// I32Load8U pops an address and pushes the byte at address+offset, zero extended.
func I32Load8U(offset uint32) []byte {
	return memarg(opcodeI32Load8U, 0, offset)
}

// I32Store pops a value and an address, storing the value at address+offset.
func I32Store(offset uint32) []byte {
	return memarg(opcodeI32Store, 2, offset)
}

// I32Store8 is like I32Store, but only stores the low byte.
func I32Store8(offset uint32) []byte {
	return memarg(opcodeI32Store8, 0, offset)
}

// MemoryInit pops a destination, source offset and length, copying from the passive data segment.
func MemoryInit(segment uint32) []byte {
	ret := append([]byte{opcodeMiscPrefix}, leb128.EncodeUint32(opcodeMiscMemoryInit)...)
	ret = append(ret, leb128.EncodeUint32(segment)...)
	return append(ret, 0x00)
}

func block(opcode byte, body [][]byte) []byte {
	ret := append([]byte{opcode, blockTypeEmpty}, Concat(body...)...)
	return append(ret, OpcodeEnd)
}

// If runs body when the popped i32 is not zero.
func If(body ...[]byte) []byte {
	return block(opcodeIf, body)
}

// IfEqz runs body when the popped i32 is zero.
func IfEqz(body ...[]byte) []byte {
	return append(append([]byte{}, I32Eqz...), If(body...)...)
}

// Loop runs body in a block that Br(0) jumps back to the start of.
func Loop(body ...[]byte) []byte {
	return block(opcodeLoop, body)
}

// Br branches to the enclosing block at depth.
func Br(depth uint32) []byte {
	return withIndex(opcodeBr, depth)
}

// BrIf pops an i32 and branches to the enclosing block at depth when it is not zero.
func BrIf(depth uint32) []byte {
	return withIndex(opcodeBrIf, depth)
}
