//go:build !ruvy_embed

package engine

var embedded []byte
