// Package componentize builds Go programs and test binaries into WebAssembly
// components.
//
// A build runs the Go toolchain for GOOS=wasip1 GOARCH=wasm, embeds the
// component-type metadata of the selected WIT world into the core module and
// wraps it with the wasi_snapshot_preview1 reactor adapter. The wasm-tools
// CLI does the WIT parsing and component encoding.
//
// # Packages
//
//	componentize/
//	├── cmd/componentize-go/  Command line interface
//	├── pipeline/             Gate, compile, embed and encode stages
//	├── toolchain/            Go version gate and go build / go test -c
//	├── resolve/              WIT loading, merging and world selection
//	├── metadata/             component-type custom section embedding
//	├── component/            Component encoding and binary inspection
//	├── adapter/              Embedded wasi_snapshot_preview1 reactor adapter
//	├── wasmtools/            wasm-tools invocations
//	├── wasm/                 Core module sections, imports and exports
//	├── artifact/             Atomic artifact writes and test binary naming
//	├── config/               componentize.yaml loading
//	├── process/              External command execution
//	└── errors/               Structured errors with phase and kind
//
// # Quick Start
//
// Build the module in the working directory against ./wit:
//
//	componentize-go -w my-world build -o main.wasm
//
// Build test binaries of two packages into ./out:
//
//	componentize-go -w my-world test --pkg ./internal/http/router --pkg ./store -o out
//
// The same flow is available as a library:
//
//	p := &pipeline.Pipeline{
//		Go:           toolchain.NewGo("", runner),
//		Resolve:      resolve.Options{Loader: resolve.ToolLoader{Tool: tool}, World: "my-world"},
//		Embedder:     &metadata.Embedder{Encoder: metadata.ToolEncoder{Tool: tool}},
//		Encoder:      &component.Encoder{Backend: component.ToolBackend{Tool: tool}, Validate: true},
//		Componentize: true,
//	}
//	bin, err := p.Build(ctx, pipeline.BuildRequest{Output: "main.wasm"})
//
// # Error Handling
//
// Errors returned by every package are *errors.Error values carrying the
// phase (gate, resolve, build, embed, encode, test) and kind (argument,
// process, parse, resolution, validation, version, io):
//
//	if errors.KindOf(err) == errors.KindVersion {
//		// unsupported Go toolchain
//	}
package componentize
