// Package toolchain drives the Go compiler that produces core wasm modules.
//
// Gate checks `go version` before anything is built: only go1.25.0 and
// later 1.x releases are accepted, since earlier releases lack the wasip1
// reactor support the component adapter relies on. Go.Build and
// Go.BuildTest compile with GOOS=wasip1 GOARCH=wasm.
package toolchain
