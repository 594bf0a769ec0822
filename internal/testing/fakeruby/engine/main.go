// Command engine is a reactor with the hooks of the Ruby engine, implemented by guest.Adapter over fakeruby.
//
//	GOOS=wasip1 GOARCH=wasm go build -buildmode=c-shared -o engine.wasm ./internal/testing/fakeruby/engine
package main

// main is not called in a reactor. The hooks are in exports_wasip1.go.
func main() {}
