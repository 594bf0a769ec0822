package wasmbin

import "github.com/Shopify/ruvy/internal/leb128"

// Code is a function body. Only encoding is supported: bodies of an existing module pass through as section
// payloads.
//
// See https://www.w3.org/TR/wasm-core-2/#binary-code
type Code struct {
	// LocalTypes are the types of locals after the parameters, one entry per local.
	LocalTypes []ValueType
	// Body is the instruction sequence, including the terminating end opcode.
	Body []byte
}

// encodeCode returns the Code encoded in WebAssembly Binary Format, run-length encoding consecutive local types.
func encodeCode(c *Code) []byte {
	var groups, locals []byte
	var groupCount uint32
	for i := 0; i < len(c.LocalTypes); {
		t, n := c.LocalTypes[i], uint32(0)
		for ; i < len(c.LocalTypes) && c.LocalTypes[i] == t; i++ {
			n++
		}
		locals = append(locals, leb128.EncodeUint32(n)...)
		locals = append(locals, t)
		groupCount++
	}
	groups = leb128.EncodeUint32(groupCount)
	data := append(groups, locals...)
	data = append(data, c.Body...)
	return encodeSizePrefixed(data)
}

// EncodeCodeSection encodes the payload of the code section.
func EncodeCodeSection(codes []*Code) []byte {
	return encodeVector(codes, encodeCode)
}
