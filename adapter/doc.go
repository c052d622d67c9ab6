// Package adapter provides the wasi_snapshot_preview1 reactor adapter used
// to turn a wasip1 core module into a component.
//
// The adapter binary is embedded at build time from assets/. It is fetched
// from the pinned wasmtime release with `go generate ./adapter`.
package adapter
