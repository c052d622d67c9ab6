// Package process runs external tools and captures their status and output.
//
// Every subprocess componentize-go starts (the Go toolchain, wasm-tools, a
// bindings generator) goes through a Runner, so policy such as timeouts or
// retries lives in one place. Runs are blocking and sequential.
package process
