package leb128

import (
	"bytes"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeInt32(t *testing.T) {
	for _, c := range []struct {
		input    int32
		expected []byte
	}{
		{input: -165675008, expected: []byte{0x80, 0x80, 0x80, 0xb1, 0x7f}},
		{input: -624485, expected: []byte{0x9b, 0xf1, 0x59}},
		{input: -16256, expected: []byte{0x80, 0x81, 0x7f}},
		{input: -1, expected: []byte{0x7f}},
		{input: 0, expected: []byte{0x00}},
		{input: 4, expected: []byte{0x04}},
		{input: 16256, expected: []byte{0x80, 0xff, 0x0}},
		{input: 624485, expected: []byte{0xe5, 0x8e, 0x26}},
		{input: math.MaxInt32, expected: []byte{0xff, 0xff, 0xff, 0xff, 0x7}},
		{input: math.MinInt32, expected: []byte{0x80, 0x80, 0x80, 0x80, 0x78}},
	} {
		require.Equal(t, c.expected, EncodeInt32(c.input))
		decoded, n, err := LoadInt32(c.expected)
		require.NoError(t, err)
		require.Equal(t, c.input, decoded)
		require.Equal(t, uint64(len(c.expected)), n)
	}
}

func TestEncodeDecodeInt64(t *testing.T) {
	for _, c := range []struct {
		input    int64
		expected []byte
	}{
		{input: -math.MaxInt32, expected: []byte{0x81, 0x80, 0x80, 0x80, 0x78}},
		{input: -4, expected: []byte{0x7c}},
		{input: 1, expected: []byte{0x01}},
		{input: 165675008, expected: []byte{0x80, 0x80, 0x80, 0xcf, 0x0}},
		{input: math.MaxInt64, expected: []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x0}},
		{input: math.MinInt64, expected: []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x7f}},
	} {
		require.Equal(t, c.expected, EncodeInt64(c.input))
		decoded, _, err := LoadInt64(c.expected)
		require.NoError(t, err)
		require.Equal(t, c.input, decoded)
	}
}

func TestEncodeUint64(t *testing.T) {
	for _, c := range []struct {
		input    uint64
		expected []byte
	}{
		{input: 0, expected: []byte{0x00}},
		{input: 16256, expected: []byte{0x80, 0x7f}},
		{input: 165675008, expected: []byte{0x80, 0x80, 0x80, 0x4f}},
		{input: math.MaxUint32, expected: []byte{0xff, 0xff, 0xff, 0xff, 0xf}},
		{input: math.MaxUint64, expected: []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x1}},
	} {
		require.Equal(t, c.expected, EncodeUint64(c.input))
		if c.input <= math.MaxUint32 {
			require.Equal(t, c.expected, EncodeUint32(uint32(c.input)))
		}
	}
}

func TestLoadUint32(t *testing.T) {
	tests := []struct {
		name   string
		bytes  []byte
		exp    uint32
		expErr bool
	}{
		{name: "zero", bytes: []byte{0x00}, exp: 0},
		{name: "padded zero", bytes: []byte{0x80, 0}, exp: 0},
		{name: "three bytes", bytes: []byte{0xe5, 0x8e, 0x26}, exp: 624485},
		{name: "max", bytes: []byte{0xff, 0xff, 0xff, 0xff, 0xf}, exp: math.MaxUint32},
		{name: "too long", bytes: []byte{0x83, 0x80, 0x80, 0x80, 0x80, 0x00}, expErr: true},
		{name: "unused bits set", bytes: []byte{0x82, 0x80, 0x80, 0x80, 0x70}, expErr: true},
		{name: "truncated", bytes: []byte{0x80}, expErr: true},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			actual, n, err := LoadUint32(tc.bytes)
			if tc.expErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.exp, actual)
			require.Equal(t, uint64(len(tc.bytes)), n)
		})
	}
}

func TestLoadUint64(t *testing.T) {
	actual, n, err := LoadUint64([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x1})
	require.NoError(t, err)
	require.Equal(t, uint64(math.MaxUint64), actual)
	require.Equal(t, uint64(10), n)

	_, _, err = LoadUint64([]byte{0x89, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x71})
	require.ErrorIs(t, err, errOverflow64)
}

func TestLoadInt32(t *testing.T) {
	tests := []struct {
		name   string
		bytes  []byte
		exp    int32
		expErr bool
	}{
		{name: "19", bytes: []byte{0x13}, exp: 19},
		{name: "127", bytes: []byte{0xff, 0x00}, exp: 127},
		{name: "-1", bytes: []byte{0x7f}, exp: -1},
		{name: "-127", bytes: []byte{0x81, 0x7f}, exp: -127},
		{name: "-129", bytes: []byte{0xff, 0x7e}, exp: -129},
		{name: "positive overflow", bytes: []byte{0xff, 0xff, 0xff, 0xff, 0x0f}, expErr: true},
		{name: "mixed sign bits", bytes: []byte{0xff, 0xff, 0xff, 0xff, 0x4f}, expErr: true},
		{name: "zero with high bits", bytes: []byte{0x80, 0x80, 0x80, 0x80, 0x70}, expErr: true},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			actual, n, err := LoadInt32(tc.bytes)
			if tc.expErr {
				require.ErrorIs(t, err, errOverflow32)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.exp, actual)
			require.Equal(t, uint64(len(tc.bytes)), n)
		})
	}
}

func TestDecodeUint32_Sequential(t *testing.T) {
	var buf []byte
	for _, v := range []uint32{1, 300, math.MaxUint32, 0} {
		buf = append(buf, EncodeUint32(v)...)
	}

	r := bytes.NewReader(buf)
	var got []uint32
	for {
		v, _, err := DecodeUint32(r)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, v)
	}
	require.Equal(t, []uint32{1, 300, math.MaxUint32, 0}, got)
}
