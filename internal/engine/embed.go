//go:build ruvy_embed

package engine

import _ "embed"

// embedded is copied here by the release build from the output of cmd/ruvy-engine.
//
//go:embed ruvy_engine.wasm
var embedded []byte
