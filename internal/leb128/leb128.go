// Package leb128 implements the variable-length integer encoding used by the
// WebAssembly binary format.
//
// See https://en.wikipedia.org/wiki/LEB128
package leb128

import (
	"errors"
	"fmt"
	"io"
)

const (
	maxVarintLen32 = 5
	maxVarintLen64 = 10
)

var (
	errOverflow32 = errors.New("overflows a 32-bit integer")
	errOverflow64 = errors.New("overflows a 64-bit integer")
)

// EncodeInt32 encodes the signed value into a buffer in LEB128 format
func EncodeInt32(value int32) []byte {
	return EncodeInt64(int64(value))
}

// EncodeInt64 encodes the signed value into a buffer in LEB128 format
func EncodeInt64(value int64) (buf []byte) {
	for {
		// Take 7 remaining low-order bits from the value into b.
		b := uint8(value & 0x7f)
		// Extract the sign bit.
		s := uint8(value & 0x40)
		value >>= 7

		// Signed values need another byte unless the remaining bits are all copies of the sign bit.
		if (value != -1 || s == 0) && (value != 0 || s != 0) {
			b |= 0x80
		}

		buf = append(buf, b)
		if b&0x80 == 0 {
			return buf
		}
	}
}

// EncodeUint32 encodes the value into a buffer in LEB128 format
func EncodeUint32(value uint32) []byte {
	return EncodeUint64(uint64(value))
}

// EncodeUint64 encodes the value into a buffer in LEB128 format
func EncodeUint64(value uint64) (buf []byte) {
	for {
		b := uint8(value & 0x7f)
		value >>= 7

		// If there are remaining bits, set the high-order bit to tell the reader there are more bytes.
		if value != 0 {
			b |= 0x80
		}

		buf = append(buf, b)
		if b&0x80 == 0 {
			return buf
		}
	}
}

type sliceReader struct {
	buf []byte
	pos int
}

func (r *sliceReader) ReadByte() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, io.EOF
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

// LoadUint32 is like DecodeUint32, but reads from the start of buf.
func LoadUint32(buf []byte) (ret uint32, bytesRead uint64, err error) {
	return DecodeUint32(&sliceReader{buf: buf})
}

// LoadUint64 is like DecodeUint64, but reads from the start of buf.
func LoadUint64(buf []byte) (ret uint64, bytesRead uint64, err error) {
	return DecodeUint64(&sliceReader{buf: buf})
}

// LoadInt32 is like DecodeInt32, but reads from the start of buf.
func LoadInt32(buf []byte) (ret int32, bytesRead uint64, err error) {
	return DecodeInt32(&sliceReader{buf: buf})
}

// LoadInt64 is like DecodeInt64, but reads from the start of buf.
func LoadInt64(buf []byte) (ret int64, bytesRead uint64, err error) {
	return DecodeInt64(&sliceReader{buf: buf})
}

// DecodeUint32 reads an unsigned LEB128 value that must fit in 32 bits. bytesRead is the count of bytes consumed.
func DecodeUint32(r io.ByteReader) (ret uint32, bytesRead uint64, err error) {
	var s uint32
	for i := 0; i < maxVarintLen32; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, 0, err
		}
		if b < 0x80 {
			// Unused bits of the last byte must be zero.
			if i == maxVarintLen32-1 && b > 0x0f {
				return 0, 0, errOverflow32
			}
			return ret | uint32(b)<<s, uint64(i) + 1, nil
		}
		ret |= uint32(b&0x7f) << s
		s += 7
	}
	return 0, 0, errOverflow32
}

// DecodeUint64 reads an unsigned LEB128 value that must fit in 64 bits. bytesRead is the count of bytes consumed.
func DecodeUint64(r io.ByteReader) (ret uint64, bytesRead uint64, err error) {
	var s uint64
	for i := 0; i < maxVarintLen64; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, 0, err
		}
		if b < 0x80 {
			if i == maxVarintLen64-1 && b > 0x01 {
				return 0, 0, errOverflow64
			}
			return ret | uint64(b)<<s, uint64(i) + 1, nil
		}
		ret |= uint64(b&0x7f) << s
		s += 7
	}
	return 0, 0, errOverflow64
}

// DecodeInt32 reads a signed LEB128 value that must fit in 32 bits. bytesRead is the count of bytes consumed.
func DecodeInt32(r io.ByteReader) (ret int32, bytesRead uint64, err error) {
	var shift int
	var b byte
	for {
		if b, err = r.ReadByte(); err != nil {
			return 0, 0, fmt.Errorf("readByte failed: %w", err)
		}
		ret |= (int32(b) & 0x7f) << shift
		shift += 7
		bytesRead++
		if b&0x80 != 0 {
			if bytesRead == maxVarintLen32 {
				return 0, 0, errOverflow32
			}
			continue
		}
		if shift < 32 && (b&0x40) != 0 {
			ret |= ^0 << shift
		}
		if bytesRead == maxVarintLen32 {
			// The four high bits of the last byte must be copies of the sign bit.
			if unused := b & 0b0111_0000; ret < 0 && unused != 0b0111_0000 {
				return 0, 0, errOverflow32
			} else if ret >= 0 && unused != 0 {
				return 0, 0, errOverflow32
			}
		}
		return ret, bytesRead, nil
	}
}

// DecodeInt64 reads a signed LEB128 value. bytesRead is the count of bytes consumed.
func DecodeInt64(r io.ByteReader) (ret int64, bytesRead uint64, err error) {
	var shift int
	var b byte
	for {
		if b, err = r.ReadByte(); err != nil {
			return 0, 0, fmt.Errorf("readByte failed: %w", err)
		}
		ret |= (int64(b) & 0x7f) << shift
		shift += 7
		bytesRead++
		if b&0x80 != 0 {
			if bytesRead == maxVarintLen64 {
				return 0, 0, errOverflow64
			}
			continue
		}
		if shift < 64 && (b&0x40) != 0 {
			ret |= ^0 << shift
		}
		if bytesRead == maxVarintLen64 {
			// Only the low bit of the last byte carries data; the rest is sign extension.
			if unused := b & 0b0111_1110; ret < 0 && unused != 0b0111_1110 {
				return 0, 0, errOverflow64
			} else if ret >= 0 && unused != 0 {
				return 0, 0, errOverflow64
			}
		}
		return ret, bytesRead, nil
	}
}
