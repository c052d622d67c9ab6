// Package wasmtools drives the wasm-tools CLI, which supplies WIT parsing,
// metadata encoding and component encoding to the pipeline.
//
// Every call goes through a process.Runner and exchanges files in a private
// temp directory, so the caller's buffers and files are never touched.
package wasmtools
