// Package ruby makes the Ruby engine out of a libruby reactor: a wasm32-wasip1
// build of libruby that exports its C API instead of running a main function.
//
// Inject adds the initialize and main hooks to the reactor as WebAssembly
// functions calling that API. What the hooks do is written in Ruby, in boot.rb
// and main.rb, which the hooks evaluate with rb_eval_string_protect:
//
//	wizer.initialize  ruby_init, ruby_init_loadpath, then boot.rb evaluates
//	                  $RUVY_PRELOAD_PATH and reads the script from stdin
//	ruvy.main         main.rb evaluates the script, then ruby_cleanup, whose
//	                  status becomes the exit code
//
// The reactor must define its memory and export these functions, with their C
// signatures on wasm32:
//
//	malloc                  (i32) -> i32
//	ruby_init               () -> ()
//	ruby_init_loadpath      () -> ()
//	rb_eval_string_protect  (i32 i32) -> i32
//	ruby_cleanup            (i32) -> i32
//
// It must also import wasi_snapshot_preview1.proc_exit, as anything linked
// with wasi-libc does.
package ruby
