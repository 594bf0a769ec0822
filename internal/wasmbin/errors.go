package wasmbin

import "errors"

var (
	ErrInvalidMagic   = errors.New("invalid magic number")
	ErrInvalidVersion = errors.New("invalid version header")
	ErrInvalidByte    = errors.New("invalid byte")
)
