package wasmbin

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInstructions(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected []byte
	}{
		{name: "i32.const", input: I32Const(-1), expected: []byte{0x41, 0x7f}},
		{name: "call", input: Call(200), expected: []byte{0x10, 0xc8, 0x01}},
		{name: "local.set", input: LocalSet(2), expected: []byte{0x21, 0x02}},
		{name: "i32.load", input: I32Load(4), expected: []byte{0x28, 0x02, 0x04}},
		{name: "i32.load8_u", input: I32Load8U(0), expected: []byte{0x2d, 0x00, 0x00}},
		{name: "i32.store", input: I32Store(128), expected: []byte{0x36, 0x02, 0x80, 0x01}},
		{name: "memory.init", input: MemoryInit(1), expected: []byte{0xfc, 0x08, 0x01, 0x00}},
		{name: "if", input: If(Unreachable), expected: []byte{0x04, 0x40, 0x00, 0x0b}},
		{name: "if eqz", input: IfEqz(Drop), expected: []byte{0x45, 0x04, 0x40, 0x1a, 0x0b}},
		{name: "loop", input: Loop(Br(0)), expected: []byte{0x03, 0x40, 0x0c, 0x00, 0x0b}},
		{name: "br_if", input: BrIf(1), expected: []byte{0x0d, 0x01}},
		{name: "concat", input: Concat(GlobalGet(1), I32Add, GlobalSet(1)), expected: []byte{0x23, 0x01, 0x6a, 0x24, 0x01}},
	}

	for _, tt := range tests {
		tc := tt

		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, tc.input)
		})
	}
}

func TestConcatVectors(t *testing.T) {
	a := EncodeFunctionSection([]uint32{1, 2})
	b := EncodeFunctionSection([]uint32{3})

	joined, err := ConcatVectors(a, b)
	require.NoError(t, err)
	require.Equal(t, EncodeFunctionSection([]uint32{1, 2, 3}), joined)

	joined, err = ConcatVectors(nil, b)
	require.NoError(t, err)
	require.Equal(t, b, joined)

	_, err = ConcatVectors([]byte{0x80}, b)
	require.Error(t, err)
}

func TestVectorLen(t *testing.T) {
	n, err := VectorLen(nil)
	require.NoError(t, err)
	require.Zero(t, n)

	n, err = VectorLen(EncodeFunctionSection(make([]uint32, 200)))
	require.NoError(t, err)
	require.Equal(t, uint32(200), n)

	_, err = VectorLen([]byte{0x80})
	require.Error(t, err)
}
